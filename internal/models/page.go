package models

// ListParams — базовые параметры постраничной выдачи.
type ListParams struct {
	PageSize  int32
	PageToken string
}

// Page — результат постраничной выдачи.
type Page[T any] struct {
	Items         []T
	NextPageToken string
}
