package model

// UserData is a login account. It is keyed by login name; UserID is the
// stable opaque id that profiles and conferences are owned by.
type UserData struct {
	Key            Key    `json:"-" bson:"_id"`
	UserID         string `json:"user_id" bson:"user_id"`
	Login          string `json:"login" bson:"login"`
	HashedPassword string `json:"password_hash" bson:"password_hash"`
	Email          string `json:"email" bson:"email"`
	Nickname       string `json:"nickname" bson:"nickname"`
}

func UserKey(login string) Key {
	return NewNameKey(KindUser, login, nil)
}

func (u UserData) Identity() Identity {
	return Identity{UserID: u.UserID, Email: u.Email, Nickname: u.Nickname}
}
