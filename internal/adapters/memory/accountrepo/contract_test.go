package accountrepo

import (
	"testing"

	"github.com/iforum-lawyers/lawyer-directory-api/internal/adapters/contracttest"
	accountrepoport "github.com/iforum-lawyers/lawyer-directory-api/internal/ports/out/accountrepo"
)

func TestContract_AccountRepo(t *testing.T) {
	contracttest.RunAccountRepo(t, func(t *testing.T) (accountrepoport.Repository, func()) {
		t.Helper()
		return NewRepo(), nil
	})
}
