package profilerepo

import (
	"testing"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/contracttest"
	profilerepoport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/profilerepo"
)

func TestContract_ProfileRepo(t *testing.T) {
	contracttest.RunProfileRepo(t, func(t *testing.T) (profilerepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
