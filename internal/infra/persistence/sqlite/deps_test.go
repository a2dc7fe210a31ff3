package sqlite

import (
	"go/build"
	"strings"
	"testing"
)

var allowedImports = map[string]struct{}{
	"perfusioncore/pkg/domain":                        {},
	"perfusioncore/internal/infra/persistence/memory": {},
	"perfusioncore/internal/infra/persistence/slots":  {},
}

func TestImportsAreDomainOrPersistence(t *testing.T) {
	pkg, err := build.Default.ImportDir(".", 0)
	if err != nil {
		t.Fatalf("import dir: %v", err)
	}
	for _, imp := range pkg.Imports {
		if !strings.HasPrefix(imp, "perfusioncore/") {
			continue
		}
		if _, ok := allowedImports[imp]; ok {
			continue
		}
		t.Fatalf("unexpected dependency: %s", imp)
	}
}
