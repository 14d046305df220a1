package model

import "fmt"

type TeeShirtSize string

const (
	TeeShirtNotSpecified TeeShirtSize = "NOT_SPECIFIED"
)

var teeShirtSizes = map[TeeShirtSize]bool{
	TeeShirtNotSpecified: true,
	"XS_M": true, "XS_W": true,
	"S_M": true, "S_W": true,
	"M_M": true, "M_W": true,
	"L_M": true, "L_W": true,
	"XL_M": true, "XL_W": true,
	"XXL_M": true, "XXL_W": true,
	"XXXL_M": true, "XXXL_W": true,
}

func ParseTeeShirtSize(s string) (TeeShirtSize, error) {
	size := TeeShirtSize(s)
	if !teeShirtSizes[size] {
		return "", fmt.Errorf("unknown tee shirt size %q", s)
	}
	return size, nil
}

// Identity is the authenticated caller as resolved from a token.
type Identity struct {
	UserID   string
	Email    string
	Nickname string
}

type Profile struct {
	Key                    Key          `json:"-" bson:"_id"`
	DisplayName            string       `json:"displayName" bson:"displayName"`
	MainEmail              string       `json:"mainEmail" bson:"mainEmail"`
	TeeShirtSize           TeeShirtSize `json:"teeShirtSize" bson:"teeShirtSize"`
	ConferenceKeysToAttend KeySet       `json:"conferenceKeysToAttend" bson:"conferenceKeysToAttend"`
	SessionKeysWishlist    KeySet       `json:"sessionKeysWishlist" bson:"sessionKeysWishlist"`
}

// NewProfile builds the profile created on a user's first access.
func NewProfile(who Identity) *Profile {
	return &Profile{
		Key:          ProfileKey(who.UserID),
		DisplayName:  who.Nickname,
		MainEmail:    who.Email,
		TeeShirtSize: TeeShirtNotSpecified,
	}
}

func (p *Profile) UserID() string {
	return p.Key.Name
}

type ProfileForm struct {
	DisplayName  *string `json:"displayName"`
	TeeShirtSize *string `json:"teeShirtSize"`
}
