package entity

import "time"

const AnonymousName = "Anonymous"

type Identity struct {
	ID                   string     `json:"id"`
	DisplayName          string     `json:"displayName"`
	CredentialsChangedAt *time.Time `json:"-"`
}

func (that *Identity) Ref() *IdentityRef {
	return &IdentityRef{
		ID:          that.ID,
		DisplayName: that.DisplayName,
	}
}

// CredentialsChangedAfter - reports whether credentials were rotated after a token was issued.
func (that *Identity) CredentialsChangedAfter(issuedAt time.Time) bool {
	if that.CredentialsChangedAt == nil {
		return false
	}

	return that.CredentialsChangedAt.Truncate(time.Second).After(issuedAt)
}

// Binding is the per-connection state. It is owned by the connection's read loop.
type Binding struct {
	ConnID        string    `json:"connectionId"`
	Identity      *Identity `json:"identity,omitempty"`
	Authenticated bool      `json:"authenticated"`
	RoomCode      string    `json:"roomCode,omitempty"`
	Side          Side      `json:"side,omitempty"`
}

// CanPlay - reports whether the binding carries an identity that may act in rooms.
func (that *Binding) CanPlay(allowAnonymous bool) bool {
	if that.Identity == nil {
		return false
	}

	return that.Authenticated || allowAnonymous
}

func (that *Binding) Attach(code string, side Side) {
	that.RoomCode = code
	that.Side = side
}

func (that *Binding) Detach() {
	that.RoomCode = ""
	that.Side = SideNone
}

func (that *Binding) InRoom(code string) bool {
	return that.RoomCode != "" && that.RoomCode == code
}
