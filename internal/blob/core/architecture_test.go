package core

import (
	"testing"

	"perfusioncore/testutil"
)

func TestBlobContractIgnoresDomain(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.DomainImportForbidden, "blob stores move bytes, not records")
}
