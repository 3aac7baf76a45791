package httpapi

import (
	"time"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/accounts"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
)

type LawyerProfile struct {
	Id                string                    `json:"id"`
	Name              string                    `json:"name"`
	PhotoUrl          nullable.Nullable[string] `json:"photoUrl"`
	Age               int                       `json:"age"`
	BarLicenseNo      nullable.Nullable[string] `json:"barLicenseNo"`
	BarAssociation    string                    `json:"barAssociation"`
	YearsOfPractice   int                       `json:"yearsOfPractice"`
	Specializations   []string                  `json:"specializations"`
	MobileNo          string                    `json:"mobileNo"`
	City              string                    `json:"city"`
	PreferredLanguage string                    `json:"preferredLanguage"`
	Bio               string                    `json:"bio"`
	Approved          bool                      `json:"approved"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

type CreateProfileRequest struct {
	Name              string   `json:"name"`
	Age               int      `json:"age"`
	BarLicenseNo      *string  `json:"barLicenseNo,omitempty"`
	BarAssociation    string   `json:"barAssociation"`
	YearsOfPractice   int      `json:"yearsOfPractice"`
	Specializations   []string `json:"specializations"`
	MobileNo          string   `json:"mobileNo"`
	City              string   `json:"city"`
	PreferredLanguage string   `json:"preferredLanguage"`
	Bio               string   `json:"bio"`
}

type ProfileResponse struct {
	Profile LawyerProfile `json:"profile"`
}

type DirectoryResponse struct {
	Profiles        []LawyerProfile `json:"profiles"`
	Cities          []string        `json:"cities"`
	Specializations []string        `json:"specializations"`
	Source          string          `json:"source"`
}

type SpecializationsResponse struct {
	Specializations []string `json:"specializations"`
}

type ReviewListResponse struct {
	Status   string          `json:"status"`
	Profiles []LawyerProfile `json:"profiles"`
}

type ReviewActionResponse struct {
	Profile  LawyerProfile   `json:"profile"`
	Profiles []LawyerProfile `json:"profiles"`
}

type SignUpRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	BarLicenseNo *string `json:"barLicenseNo,omitempty"`
	MobileNo     *string `json:"mobileNo,omitempty"`
}

type SignUpResponse struct {
	UserId           string                    `json:"userId"`
	ClaimedProfileId nullable.Nullable[string] `json:"claimedProfileId"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionUser struct {
	Id    string               `json:"id"`
	Email *openapi_types.Email `json:"email,omitempty"`
	Roles []string             `json:"roles"`
}

type SignInResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      SessionUser `json:"user"`
}

type SessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *SessionUser `json:"user,omitempty"`
}

func profileFromDomain(p domain.Profile, photoURL string) LawyerProfile {
	specs := make([]string, 0, len(p.Specializations))
	for _, sp := range p.Specializations {
		specs = append(specs, string(sp))
	}
	return LawyerProfile{
		Id:                string(p.ID),
		Name:              p.Name,
		PhotoUrl:          nullableString(photoURL),
		Age:               p.Age,
		BarLicenseNo:      nullableStringPtr(p.BarLicenseNo),
		BarAssociation:    p.BarAssociation,
		YearsOfPractice:   p.YearsOfPractice,
		Specializations:   specs,
		MobileNo:          p.MobileNo,
		City:              p.City,
		PreferredLanguage: string(p.PreferredLanguage),
		Bio:               p.Bio,
		Approved:          p.Approved,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func sessionUserFromDomain(s domain.Session) SessionUser {
	roles := make([]string, 0, len(s.Roles))
	for _, r := range s.Roles {
		roles = append(roles, string(r))
	}
	u := SessionUser{Id: string(s.Subject), Roles: roles}
	if s.Email != "" {
		e := openapi_types.Email(s.Email)
		u.Email = &e
	}
	return u
}

func signUpResponse(a accounts.Account, claimed *domain.Profile) SignUpResponse {
	resp := SignUpResponse{UserId: string(a.ID), ClaimedProfileId: nullable.NewNullNullable[string]()}
	if claimed != nil {
		resp.ClaimedProfileId = nullable.NewNullableWithValue(string(claimed.ID))
	}
	return resp
}

func specializationNames() []string {
	all := domain.Specializations()
	out := make([]string, 0, len(all))
	for _, sp := range all {
		out = append(out, string(sp))
	}
	return out
}

// nullableString maps "" to an explicit JSON null.
func nullableString(s string) nullable.Nullable[string] {
	if s == "" {
		return nullable.NewNullNullable[string]()
	}
	return nullable.NewNullableWithValue(s)
}

func nullableStringPtr(p *string) nullable.Nullable[string] {
	if p == nil {
		return nullable.NewNullNullable[string]()
	}
	return nullableString(*p)
}
