package shared

// Asynq task types
const (
	TypeReconcileAuthor       = "author:reconcile"
	TypeRefreshPopularAuthors = "author:refresh_popular"
)

// Asynq queues
const (
	QueueAuthor  = "author"
	QueueDefault = "default"
)
