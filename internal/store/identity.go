package store

// Identity is either a signed-in user or the anonymous guest of this device.
type Identity struct {
	UserID string
}

// Guest returns the anonymous identity.
func Guest() Identity { return Identity{} }

// User returns the identity of a signed-in user.
func User(id string) Identity { return Identity{UserID: id} }

func (i Identity) IsGuest() bool { return i.UserID == "" }

// Owner is the key that scopes on-device rows. The guest owns "".
func (i Identity) Owner() string { return i.UserID }

// Topic names the live channel for this identity.
func (i Identity) Topic() string {
	if i.IsGuest() {
		return "guest"
	}
	return "user:" + i.UserID
}

func (i Identity) String() string {
	if i.IsGuest() {
		return "guest"
	}
	return i.UserID
}
