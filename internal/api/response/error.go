package response

// Error is the envelope of a failed request. Extras carries the reason.
type Error struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Extras  string `json:"extras"`
}

func (e Error) Error() string {
	return e.Extras
}

func NewError(code int, message string) Error {
	return Error{Code: code, Extras: message}
}
