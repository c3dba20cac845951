package model

// Session is the authenticated ERP identity used by every later call.
type Session struct {
	CSRFToken string
	UID       int64
}
