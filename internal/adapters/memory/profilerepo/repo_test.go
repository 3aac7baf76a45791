package profilerepo

import (
	"context"
	"testing"
	"time"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/domain"
	"github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

func TestRepo_ReturnsCopies(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	lic := "MH1/2000"
	p := profilerepo.Profile{
		ID:              domain.ProfileID("p-1"),
		Owner:           domain.SubjectID("sub-1"),
		Name:            "Asha Rao",
		BarLicenseNo:    &lic,
		Specializations: []domain.Specialization{domain.SpecCivil},
		CreatedAt:       time.Unix(10, 0).UTC(),
	}
	if err := r.Create(context.Background(), p); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := r.GetByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	*got.BarLicenseNo = "XX9/9999"
	got.Specializations[0] = domain.SpecIPR

	again, _ := r.GetByID(context.Background(), p.ID)
	if *again.BarLicenseNo != "MH1/2000" || again.Specializations[0] != domain.SpecCivil {
		t.Fatalf("stored record was mutated through a returned copy: %+v", again)
	}
}

func TestRepo_CreateRejectsEmptyID(t *testing.T) {
	t.Parallel()

	if err := NewRepo().Create(context.Background(), profilerepo.Profile{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
