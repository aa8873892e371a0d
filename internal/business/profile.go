// Package business stores the identity printed on every quotation.
package business

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/stablebuilds/quoter/internal/errors"
	"github.com/stablebuilds/quoter/internal/store"
)

// DocumentKey is the storage key of the business profile.
const DocumentKey = "config"

// Profile is the business identity.
type Profile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Web     string `json:"web"`
	Logo    string `json:"logo,omitempty"`
}

// Default returns the identity used until one is saved.
func Default() Profile {
	return Profile{
		Name:    "StableBuilds",
		Address: "Av. Construcción #123, CDMX",
		Phone:   "55 1234 5678",
		Email:   "contacto@stablebuilds.com",
		Web:     "stablebuilds.com",
	}
}

// Patch is a partial profile update. Nil fields are left alone; an empty
// Logo removes the logo.
type Patch struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Web     *string `json:"web,omitempty"`
	Logo    *string `json:"logo,omitempty"`
}

// Apply returns p with the patch applied.
func (pt Patch) Apply(p Profile) Profile {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&p.Name, pt.Name)
	set(&p.Address, pt.Address)
	set(&p.Phone, pt.Phone)
	set(&p.Email, pt.Email)
	set(&p.Web, pt.Web)
	set(&p.Logo, pt.Logo)
	return p
}

func (p Profile) trimmed() Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.Address = strings.TrimSpace(p.Address)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Email = strings.TrimSpace(p.Email)
	p.Web = strings.TrimSpace(p.Web)
	p.Logo = strings.TrimSpace(p.Logo)
	return p
}

// Logo image formats accepted by the document renderer.
const (
	ImagePNG  = "PNG"
	ImageJPEG = "JPG"
)

// LogoImage decodes the logo. It accepts a data URL or bare base64 and
// reports the image type from the data URL or the file signature.
func (p Profile) LogoImage() (data []byte, imageType string, ok bool) {
	raw := strings.TrimSpace(p.Logo)
	if raw == "" {
		return nil, "", false
	}
	if strings.HasPrefix(raw, "data:") {
		comma := strings.IndexByte(raw, ',')
		if comma < 0 {
			return nil, "", false
		}
		raw = raw[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", false
	}
	switch {
	case len(data) >= 8 && string(data[1:4]) == "PNG":
		return data, ImagePNG, true
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return data, ImageJPEG, true
	default:
		return nil, "", false
	}
}

// Store persists the profile in the config document.
type Store struct {
	doc *store.Document[Profile]
}

// NewStore binds the profile store to backend.
func NewStore(backend store.Backend) *Store {
	return &Store{doc: store.NewDocument[Profile](backend, DocumentKey)}
}

// Get returns the saved profile, or Default when none is saved.
func (s *Store) Get(ctx context.Context) (Profile, error) {
	p, _, err := s.doc.Get(ctx, Default())
	return p, err
}

// HasSaved reports whether a profile has been saved.
func (s *Store) HasSaved(ctx context.Context) (bool, error) {
	_, found, err := s.doc.Get(ctx, Profile{})
	return found, err
}

// Save overwrites the profile. The name is required.
func (s *Store) Save(ctx context.Context, p Profile) (Profile, error) {
	p = p.trimmed()
	if p.Name == "" {
		return Profile{}, errors.NewInvalidRequest("business name is required")
	}
	if p.Logo != "" {
		if _, _, ok := p.LogoImage(); !ok {
			return Profile{}, errors.NewInvalidRequest("logo must be a base64 PNG or JPEG image")
		}
	}
	if err := s.doc.Put(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Update applies patch to the current profile and saves it.
func (s *Store) Update(ctx context.Context, patch Patch) (Profile, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return Profile{}, err
	}
	return s.Save(ctx, patch.Apply(current))
}

// Reset saves the default profile.
func (s *Store) Reset(ctx context.Context) (Profile, error) {
	return s.Save(ctx, Default())
}
