package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a local or federated account row
type Account struct {
	Id             uuid.UUID
	IRI            string // Canonical actor URI
	Handle         string // user@domain
	DisplayName    string
	Bio            string
	AvatarURL      string
	CoverURL       string
	Protected      bool
	InstanceHost   string // Home instance, references instances.host
	FollowersCount int
	FollowingCount int
	PostsCount     int
	FieldHtmls     map[string]string // Profile metadata fields, name -> html value
	Published      time.Time
	CreatedAt      time.Time
}

// AccountOwner holds the private half of a local account: key material
// and personal settings. Shares its id with the accounts row.
type AccountOwner struct {
	Id                uuid.UUID
	Handle            string
	RsaPrivateKeyPem  string
	RsaPublicKeyPem   string
	Language          string
	Visibility        string // Default post visibility
	FollowedTags      []string
	DiscoverableByDefault bool
	CreatedAt         time.Time
}

// Instance represents a known fediverse host
type Instance struct {
	Host      string
	Software  string
	CreatedAt time.Time
}
