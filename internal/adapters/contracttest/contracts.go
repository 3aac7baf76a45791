package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	accountrepoport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/accountrepo"
	idempotencyport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/idempotency"
	profilerepoport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
	sessionstoreport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/sessionstore"
)

type CleanupFunc = func()

type ProfileRepoFactory func(t *testing.T) (profilerepoport.Repository, CleanupFunc)
type AccountRepoFactory func(t *testing.T) (accountrepoport.Repository, CleanupFunc)
type SessionStoreFactory func(t *testing.T) (sessionstoreport.Store, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Subject:  domain.SubjectID("sub-1"),
		Method:   "POST",
		Route:    "/profiles",
		BodyHash: "",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":"a"}`),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"id":"a"}` || got.ContentType != "application/json" || got.StatusCode != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// A different body hash is a different request.
	other := fp
	other.BodyHash = "other"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get other fingerprint: ok=%v err=%v", ok, err)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"id":"b"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"id":"b"}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

func RunProfileRepo(t *testing.T, newRepo ProfileRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	t0 := time.Unix(1_700_000_000, 0).UTC()
	lic := "MH1234/2015"
	photo := "1700000000000-ab12cd34-bob.jpg"

	bob := profilerepoport.Profile{
		ID:                domain.ProfileID(uuid.NewString()),
		Owner:             domain.SubjectID("sub-bob"),
		Name:              "bob",
		PhotoPath:         &photo,
		Age:               41,
		BarLicenseNo:      &lic,
		BarAssociation:    "Bar Council of Maharashtra & Goa",
		YearsOfPractice:   12,
		Specializations:   []domain.Specialization{domain.SpecCivil, domain.SpecFamily},
		MobileNo:          "+91 98200 00001",
		City:              "Mumbai",
		PreferredLanguage: domain.LanguageEnglish,
		Bio:               "Civil and family matters.",
		Approved:          false,
		CreatedAt:         t0,
		UpdatedAt:         t0,
	}
	alice := profilerepoport.Profile{
		ID:                domain.ProfileID(uuid.NewString()),
		Owner:             domain.SubjectID("sub-alice"),
		Name:              "Alice Johnson",
		Age:               38,
		BarAssociation:    "Delhi Bar Association",
		YearsOfPractice:   10,
		Specializations:   []domain.Specialization{},
		MobileNo:          "+91 98100 00002",
		City:              "Delhi",
		PreferredLanguage: domain.LanguageHindi,
		Bio:               "Corporate advisory.",
		Approved:          true,
		CreatedAt:         t0.Add(time.Minute),
		UpdatedAt:         t0.Add(time.Minute),
	}
	carol := alice
	carol.ID = domain.ProfileID(uuid.NewString())
	carol.Owner = domain.SubjectID("sub-carol")
	carol.Name = "carol"
	carol.MobileNo = "+91 98450 00003"
	carol.City = "Bangalore"
	carol.CreatedAt = t0.Add(2 * time.Minute)
	carol.UpdatedAt = carol.CreatedAt

	for _, p := range []profilerepoport.Profile{bob, alice, carol} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create %s: %v", p.Name, err)
		}
	}
	if err := repo.Create(ctx, bob); !errors.Is(err, profilerepoport.ErrAlreadyExists) {
		t.Fatalf("Create duplicate id err=%v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByID(ctx, bob.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "bob" || got.Age != 41 || got.City != "Mumbai" || got.PreferredLanguage != domain.LanguageEnglish {
		t.Fatalf("GetByID fields: %+v", got)
	}
	if got.BarLicenseNo == nil || *got.BarLicenseNo != lic || got.PhotoPath == nil || *got.PhotoPath != photo {
		t.Fatalf("GetByID optional fields: lic=%v photo=%v", got.BarLicenseNo, got.PhotoPath)
	}
	if len(got.Specializations) != 2 || got.Specializations[0] != domain.SpecCivil || got.Specializations[1] != domain.SpecFamily {
		t.Fatalf("GetByID specializations: %v", got.Specializations)
	}
	if !got.CreatedAt.Equal(t0) {
		t.Fatalf("GetByID createdAt=%v, want %v", got.CreatedAt, t0)
	}
	if _, err := repo.GetByID(ctx, domain.ProfileID(uuid.NewString())); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("GetByID unknown err=%v, want ErrNotFound", err)
	}

	a, err := repo.GetByID(ctx, alice.ID)
	if err != nil {
		t.Fatalf("GetByID alice: %v", err)
	}
	if a.BarLicenseNo != nil || a.PhotoPath != nil {
		t.Fatalf("expected nil optional fields, got lic=%v photo=%v", a.BarLicenseNo, a.PhotoPath)
	}

	if o, err := repo.GetByOwner(ctx, "sub-alice"); err != nil || o.ID != alice.ID {
		t.Fatalf("GetByOwner: id=%v err=%v", o.ID, err)
	}
	if _, err := repo.GetByOwner(ctx, "sub-nobody"); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("GetByOwner unknown err=%v, want ErrNotFound", err)
	}

	// Approved only, ordered by name case-insensitively.
	approved, err := repo.ListApproved(ctx)
	if err != nil {
		t.Fatalf("ListApproved: %v", err)
	}
	if names := profileNames(approved); !equalStrings(names, []string{"Alice Johnson", "carol"}) {
		t.Fatalf("ListApproved=%v", names)
	}

	// Everything, newest first.
	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if names := profileNames(all); !equalStrings(names, []string{"carol", "Alice Johnson", "bob"}) {
		t.Fatalf("ListAll=%v", names)
	}

	// Approval toggling.
	updatedAt := t0.Add(time.Hour)
	up, err := repo.SetApproval(ctx, bob.ID, true, updatedAt)
	if err != nil {
		t.Fatalf("SetApproval: %v", err)
	}
	if !up.Approved || !up.UpdatedAt.Equal(updatedAt) || up.Name != "bob" {
		t.Fatalf("SetApproval result: %+v", up)
	}
	approved, _ = repo.ListApproved(ctx)
	if names := profileNames(approved); !equalStrings(names, []string{"Alice Johnson", "bob", "carol"}) {
		t.Fatalf("ListApproved after approve=%v", names)
	}
	if _, err := repo.SetApproval(ctx, bob.ID, false, updatedAt); err != nil {
		t.Fatalf("SetApproval false: %v", err)
	}
	if _, err := repo.SetApproval(ctx, domain.ProfileID(uuid.NewString()), true, updatedAt); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("SetApproval unknown err=%v, want ErrNotFound", err)
	}

	// Claim lookups only see unowned records.
	daveLic := "DL7/2001"
	dave := alice
	dave.ID = domain.ProfileID(uuid.NewString())
	dave.Owner = ""
	dave.Name = "dave"
	dave.BarLicenseNo = &daveLic
	dave.MobileNo = carol.MobileNo
	dave.Approved = false
	dave.CreatedAt = t0.Add(3 * time.Minute)
	dave.UpdatedAt = dave.CreatedAt
	if err := repo.Create(ctx, dave); err != nil {
		t.Fatalf("Create dave: %v", err)
	}

	if _, err := repo.FindClaimable(ctx, lic, ""); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("FindClaimable owned licence err=%v, want ErrNotFound", err)
	}
	if c, err := repo.FindClaimable(ctx, daveLic, ""); err != nil || c.ID != dave.ID {
		t.Fatalf("FindClaimable by licence: id=%v err=%v", c.ID, err)
	}
	// carol is older and shares the number but is owned.
	if c, err := repo.FindClaimable(ctx, "", carol.MobileNo); err != nil || c.ID != dave.ID {
		t.Fatalf("FindClaimable by mobile: id=%v err=%v", c.ID, err)
	}
	if _, err := repo.FindClaimable(ctx, "", ""); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("FindClaimable empty err=%v, want ErrNotFound", err)
	}
	if _, err := repo.FindClaimable(ctx, "DL9/1999", "+91 00000 00000"); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("FindClaimable no match err=%v, want ErrNotFound", err)
	}

	if err := repo.BindOwner(ctx, carol.ID, "sub-new", updatedAt); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("BindOwner owned err=%v, want ErrNotFound", err)
	}
	if o, err := repo.GetByOwner(ctx, "sub-carol"); err != nil || o.ID != carol.ID {
		t.Fatalf("GetByOwner after refused bind: id=%v err=%v", o.ID, err)
	}
	if err := repo.BindOwner(ctx, dave.ID, "sub-new", updatedAt); err != nil {
		t.Fatalf("BindOwner: %v", err)
	}
	if o, err := repo.GetByOwner(ctx, "sub-new"); err != nil || o.ID != dave.ID {
		t.Fatalf("GetByOwner after bind: id=%v err=%v", o.ID, err)
	}
	if err := repo.BindOwner(ctx, dave.ID, "sub-other", updatedAt); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("BindOwner twice err=%v, want ErrNotFound", err)
	}
	if _, err := repo.FindClaimable(ctx, daveLic, carol.MobileNo); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("FindClaimable after bind err=%v, want ErrNotFound", err)
	}
	if err := repo.BindOwner(ctx, domain.ProfileID(uuid.NewString()), "sub-new", updatedAt); !errors.Is(err, profilerepoport.ErrNotFound) {
		t.Fatalf("BindOwner unknown err=%v, want ErrNotFound", err)
	}
}

func RunAccountRepo(t *testing.T, newRepo AccountRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	acc := accountrepoport.Account{
		ID:           domain.SubjectID(uuid.NewString()),
		Email:        "Asha.Rao@Example.com",
		PasswordHash: "$2a$04$hash",
		Roles:        []domain.Role{domain.RoleLawyer},
		CreatedAt:    time.Unix(1_700_000_000, 0).UTC(),
	}
	if err := repo.Create(ctx, acc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByEmail(ctx, "asha.rao@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != acc.ID || got.PasswordHash != acc.PasswordHash || len(got.Roles) != 1 || got.Roles[0] != domain.RoleLawyer {
		t.Fatalf("GetByEmail=%+v", got)
	}
	if byID, err := repo.GetByID(ctx, acc.ID); err != nil || byID.Email != acc.Email {
		t.Fatalf("GetByID=%+v err=%v", byID, err)
	}

	dup := acc
	dup.ID = domain.SubjectID(uuid.NewString())
	dup.Email = "ASHA.RAO@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, accountrepoport.ErrEmailTaken) {
		t.Fatalf("Create duplicate email err=%v, want ErrEmailTaken", err)
	}

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, accountrepoport.ErrNotFound) {
		t.Fatalf("GetByEmail unknown err=%v, want ErrNotFound", err)
	}
	if _, err := repo.GetByID(ctx, domain.SubjectID(uuid.NewString())); !errors.Is(err, accountrepoport.ErrNotFound) {
		t.Fatalf("GetByID unknown err=%v, want ErrNotFound", err)
	}
}

func RunSessionStore(t *testing.T, newStore SessionStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Now().UTC().Truncate(time.Second)
	sess := domain.Session{
		ID:        domain.SessionID(uuid.NewString()),
		Subject:   domain.SubjectID(uuid.NewString()),
		Email:     "admin@iforum-lawyers.com",
		Roles:     []domain.Role{domain.RoleLawyer, domain.RoleAdmin},
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Subject != sess.Subject || got.Email != sess.Email || !got.HasRole(domain.RoleAdmin) {
		t.Fatalf("Get=%+v", got)
	}
	if !got.ExpiresAt.Equal(sess.ExpiresAt) || !got.IssuedAt.Equal(sess.IssuedAt) {
		t.Fatalf("Get timestamps issued=%v expires=%v", got.IssuedAt, got.ExpiresAt)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, sessionstoreport.ErrNotFound) {
		t.Fatalf("Get after delete err=%v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
	if _, err := store.Get(ctx, domain.SessionID(uuid.NewString())); !errors.Is(err, sessionstoreport.ErrNotFound) {
		t.Fatalf("Get unknown err=%v, want ErrNotFound", err)
	}
}

func profileNames(ps []profilerepoport.Profile) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
