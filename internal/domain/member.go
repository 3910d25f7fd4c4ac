package domain

import "encoding/json"

// Response codes of the member backend that the account page reacts to.
const (
	CodeProfileRetrieved = "MEMBER-S002"
	CodeUpdateSucceeded  = "MEMBER-S003"
	CodeDeleteSucceeded  = "MEMBER-S004"
)

// Storage keys shared with the rest of the site.
const (
	AccessTokenKey = "accessToken"
	ViewMyPostsKey = "viewMyPosts"
)

// Address is the postal address attached to a member.
type Address struct {
	Street  string `json:"street"`
	Detail  string `json:"detail"`
	Zipcode string `json:"zipcode"`
}

// ProfileView is the projection of the member returned by the my-info endpoint.
type ProfileView struct {
	Email    string  `json:"email"`
	Nickname string  `json:"nickname"`
	Address  Address `json:"address"`
}

// ProfileUpdate is the body of a nickname change.
type ProfileUpdate struct {
	Nickname string `json:"nickname"`
}

// AddressUpdate is the body of an address change.
type AddressUpdate struct {
	Street  string `json:"street"`
	Detail  string `json:"detail"`
	Zipcode string `json:"zipcode"`
}

// ServerResponse is the envelope every member endpoint answers with.
// Code is the authoritative outcome; Data mirrors the endpoint contract.
type ServerResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Is reports whether the response carries the given code.
func (r *ServerResponse) Is(code string) bool {
	return r != nil && r.Code == code
}

// Profile decodes Data as a ProfileView.
func (r *ServerResponse) Profile() (*ProfileView, error) {
	var p ProfileView
	if len(r.Data) == 0 {
		return &p, nil
	}
	if err := json.Unmarshal(r.Data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
