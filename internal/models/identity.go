// internal/models/identity.go
package models

// Identity is the signed-in user an operation runs on behalf of. It is resolved per request
// and passed explicitly into every service call that needs it.
type Identity struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}
