package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/app/apperr"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/logging"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/platform/metrics"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/assetstore"
	clockport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/clock"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

// DefaultMaxPhotoBytes caps uploaded photo size.
const DefaultMaxPhotoBytes = 5 << 20

type Service struct {
	repo   profilerepo.Repository
	assets assetstore.Store
	clk    clockport.Clock
	log    *zap.Logger
	m      *metrics.Metrics

	newProfileID func() domain.ProfileID
	newAssetTag  func() string

	// MaxPhotoBytes bounds the declared size of an uploaded photo.
	MaxPhotoBytes int64
}

func NewService(repo profilerepo.Repository, assets assetstore.Store, clk clockport.Clock, log *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		repo:   repo,
		assets: assets,
		clk:    clk,
		log:    logging.OrNop(log).Named("profiles"),
		m:      m,
		newProfileID: func() domain.ProfileID {
			return domain.ProfileID(uuid.NewString())
		},
		newAssetTag: func() string {
			return uuid.NewString()[:8]
		},
		MaxPhotoBytes: DefaultMaxPhotoBytes,
	}
}

// CreateProfile validates in, uploads the optional photo, then inserts the profile as pending.
// If the insert fails the uploaded photo is deleted again.
func (s *Service) CreateProfile(ctx context.Context, owner domain.SubjectID, in CreateProfileInput) (domain.Profile, error) {
	p, err := s.validate(in)
	if err != nil {
		return domain.Profile{}, err
	}

	if _, err := s.repo.GetByOwner(ctx, owner); err == nil {
		return domain.Profile{}, apperr.Conflict("PROFILE_ALREADY_EXISTS", "A lawyer profile already exists for this account.")
	} else if !errors.Is(err, profilerepo.ErrNotFound) {
		return domain.Profile{}, apperr.Persistence("could not check for an existing profile", err)
	}

	now := s.clk.Now()
	p.ID = s.newProfileID()
	p.Owner = owner
	p.Approved = false
	p.CreatedAt = now
	p.UpdatedAt = now

	var uploaded string
	if in.Photo != nil {
		key := photoKey(now.UnixMilli(), s.newAssetTag(), in.Photo.Filename)
		path, err := s.assets.Put(ctx, assetstore.Object{
			Key:         key,
			ContentType: in.Photo.ContentType,
			Size:        in.Photo.Size,
			Body:        in.Photo.Body,
		})
		if err != nil {
			return domain.Profile{}, apperr.Storage("could not upload photo", err)
		}
		uploaded = path
		p.PhotoPath = &uploaded
	}

	if err := s.repo.Create(ctx, toRecord(p)); err != nil {
		if uploaded != "" {
			s.discardAsset(ctx, uploaded)
		}
		return domain.Profile{}, apperr.Persistence("could not save profile", err)
	}

	s.m.IncProfilesCreated()
	s.log.Info("profile created",
		zap.String("profile_id", string(p.ID)),
		zap.String("owner", string(owner)),
		zap.Bool("photo", uploaded != ""),
	)
	return p, nil
}

// discardAsset is the compensating step for a failed insert. It runs on a context that
// survives request cancellation so the orphan is still removed.
func (s *Service) discardAsset(ctx context.Context, path string) {
	err := s.assets.Delete(context.WithoutCancel(ctx), path)
	s.m.IncAssetCleanup(err == nil)
	if err != nil {
		s.log.Warn("orphaned photo after failed insert", zap.String("path", path), zap.Error(err))
	}
}

// SetApproval flips the approval flag. Only principals with the review capability may call it.
// Writing the current state again succeeds.
func (s *Service) SetApproval(ctx context.Context, who domain.Principal, id domain.ProfileID, approved bool) (domain.Profile, error) {
	if who == nil || !who.Can(domain.CapReviewProfiles) {
		return domain.Profile{}, apperr.Forbidden("reviewer access required")
	}
	rec, err := s.repo.SetApproval(ctx, id, approved, s.clk.Now())
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return domain.Profile{}, profileNotFound()
		}
		return domain.Profile{}, apperr.Persistence("could not update approval", err)
	}
	s.m.IncApprovalChange(approved)
	s.log.Info("approval changed",
		zap.String("profile_id", string(id)),
		zap.Bool("approved", approved),
		zap.String("reviewer", string(who.Subject())),
	)
	return toDomain(rec), nil
}

func (s *Service) GetMyProfile(ctx context.Context, owner domain.SubjectID) (domain.Profile, error) {
	rec, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return domain.Profile{}, profileNotFound()
		}
		return domain.Profile{}, apperr.Persistence("could not load profile", err)
	}
	return toDomain(rec), nil
}

// ClaimExisting binds an unowned profile that matches barLicenseNo or mobileNo to owner.
// Profiles that already have an owner are never claimed. It reports false when nothing
// matched or the owner already has a profile.
func (s *Service) ClaimExisting(ctx context.Context, owner domain.SubjectID, barLicenseNo, mobileNo string) (domain.Profile, bool, error) {
	lic := domain.NormalizeBarLicense(barLicenseNo)
	mobile := strings.TrimSpace(mobileNo)
	if lic == "" && mobile == "" {
		return domain.Profile{}, false, nil
	}

	if _, err := s.repo.GetByOwner(ctx, owner); err == nil {
		return domain.Profile{}, false, nil
	} else if !errors.Is(err, profilerepo.ErrNotFound) {
		return domain.Profile{}, false, apperr.Persistence("could not check for an existing profile", err)
	}

	rec, err := s.repo.FindClaimable(ctx, lic, mobile)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, apperr.Persistence("could not look up profile to claim", err)
	}
	now := s.clk.Now()
	if err := s.repo.BindOwner(ctx, rec.ID, owner, now); err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			// Claimed concurrently by someone else.
			return domain.Profile{}, false, nil
		}
		return domain.Profile{}, false, apperr.Persistence("could not claim profile", err)
	}
	rec.Owner = owner
	rec.UpdatedAt = now
	s.log.Info("profile claimed", zap.String("profile_id", string(rec.ID)), zap.String("owner", string(owner)))
	return toDomain(rec), true, nil
}

// PhotoURL resolves a displayable URL for the profile photo, or "" when there is none.
func (s *Service) PhotoURL(ctx context.Context, p domain.Profile) (string, error) {
	if p.PhotoPath == nil || *p.PhotoPath == "" {
		return "", nil
	}
	u, err := s.assets.URL(ctx, *p.PhotoPath)
	if err != nil {
		return "", apperr.Storage("could not resolve photo URL", err)
	}
	return u, nil
}

func (s *Service) validate(in CreateProfileInput) (domain.Profile, error) {
	details := map[string]any{}
	p := domain.Profile{}

	p.Name = domain.NormalizeHumanName(in.Name)
	if p.Name == "" {
		details["name"] = "must be non-empty"
	}
	if in.Age <= 0 {
		details["age"] = "must be a positive number"
	} else {
		p.Age = in.Age
	}
	if in.BarLicenseNo != nil {
		lic := domain.NormalizeBarLicense(*in.BarLicenseNo)
		switch {
		case lic == "":
		case !domain.ValidBarLicense(lic):
			details["barLicenseNo"] = "must look like MH1234/2015"
		default:
			p.BarLicenseNo = &lic
		}
	}
	p.BarAssociation = strings.TrimSpace(in.BarAssociation)
	if p.BarAssociation == "" {
		details["barAssociation"] = "must be non-empty"
	}
	if in.YearsOfPractice < 0 {
		details["yearsOfPractice"] = "must not be negative"
	} else {
		p.YearsOfPractice = in.YearsOfPractice
	}

	if len(in.Specializations) > domain.MaxSpecializations {
		details["specializations"] = fmt.Sprintf("at most %d may be selected", domain.MaxSpecializations)
	} else {
		specs := make([]domain.Specialization, 0, len(in.Specializations))
		seen := map[domain.Specialization]bool{}
		for _, raw := range in.Specializations {
			sp, ok := domain.ParseSpecialization(raw)
			if !ok {
				details["specializations"] = fmt.Sprintf("unknown specialization %q", raw)
				break
			}
			if seen[sp] {
				details["specializations"] = fmt.Sprintf("duplicate specialization %q", sp)
				break
			}
			seen[sp] = true
			specs = append(specs, sp)
		}
		p.Specializations = specs
	}

	p.MobileNo = strings.TrimSpace(in.MobileNo)
	if p.MobileNo == "" {
		details["mobileNo"] = "must be non-empty"
	}
	p.City = domain.NormalizeHumanName(in.City)
	if p.City == "" {
		details["city"] = "must be non-empty"
	}
	if lang, ok := domain.ParseLanguage(in.PreferredLanguage); ok {
		p.PreferredLanguage = lang
	} else {
		details["preferredLanguage"] = "must be English or Hindi"
	}
	p.Bio = strings.TrimSpace(in.Bio)
	if p.Bio == "" {
		details["bio"] = "must be non-empty"
	}

	if ph := in.Photo; ph != nil {
		switch {
		case ph.Body == nil:
			details["photo"] = "is empty"
		case !strings.HasPrefix(strings.ToLower(ph.ContentType), "image/"):
			details["photo"] = "must be an image"
		case s.MaxPhotoBytes > 0 && ph.Size > s.MaxPhotoBytes:
			details["photo"] = fmt.Sprintf("must be at most %d bytes", s.MaxPhotoBytes)
		}
	}

	if len(details) > 0 {
		return domain.Profile{}, apperr.Validation("invalid profile", details)
	}
	return p, nil
}

func profileNotFound() error {
	return apperr.NotFound("PROFILE_NOT_FOUND", "No lawyer profile exists for the given reference.")
}

// photoKey builds a collision-resistant storage key: <unix-millis>-<tag>-<sanitized filename>.
func photoKey(unixMillis int64, tag, filename string) string {
	return fmt.Sprintf("%d-%s-%s", unixMillis, tag, sanitizeFilename(filename))
}

func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), ".-")
	if out == "" {
		return "photo"
	}
	return out
}

func toRecord(p domain.Profile) profilerepo.Profile {
	return profilerepo.Profile{
		ID:                p.ID,
		Owner:             p.Owner,
		Name:              p.Name,
		PhotoPath:         cloneStringPtr(p.PhotoPath),
		Age:               p.Age,
		BarLicenseNo:      cloneStringPtr(p.BarLicenseNo),
		BarAssociation:    p.BarAssociation,
		YearsOfPractice:   p.YearsOfPractice,
		Specializations:   append([]domain.Specialization(nil), p.Specializations...),
		MobileNo:          p.MobileNo,
		City:              p.City,
		PreferredLanguage: p.PreferredLanguage,
		Bio:               p.Bio,
		Approved:          p.Approved,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// ToDomain converts a repository record for callers outside this package.
func ToDomain(r profilerepo.Profile) domain.Profile { return toDomain(r) }

func toDomain(r profilerepo.Profile) domain.Profile {
	return domain.Profile{
		ID:                r.ID,
		Owner:             r.Owner,
		Name:              r.Name,
		PhotoPath:         cloneStringPtr(r.PhotoPath),
		Age:               r.Age,
		BarLicenseNo:      cloneStringPtr(r.BarLicenseNo),
		BarAssociation:    r.BarAssociation,
		YearsOfPractice:   r.YearsOfPractice,
		Specializations:   append([]domain.Specialization(nil), r.Specializations...),
		MobileNo:          r.MobileNo,
		City:              r.City,
		PreferredLanguage: r.PreferredLanguage,
		Bio:               r.Bio,
		Approved:          r.Approved,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
