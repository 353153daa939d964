package models

// Row is one entry of a namespace
type Row struct {
	ID    int64  `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

type PageResponse struct {
	Data         []Row `json:"data"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int64 `json:"totalPages"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type UpdatedResponse struct {
	Updated int64 `json:"updated"`
}

type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ExecResponse is returned by the SQL passthrough for statements without a result set.
// LastID is nil when the driver cannot report it.
type ExecResponse struct {
	Changes int64  `json:"changes"`
	LastID  *int64 `json:"lastID,omitempty"`
}

// KeyNotFound is the payload of a lookup miss. It is data, not a failure.
const KeyNotFound = "Key not found"
