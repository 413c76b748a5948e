package mysql

import (
	"errors"
	"strings"
	"testing"

	"github.com/ruslano69/dbcore/pkg/datasource"
)

func TestBuildDSN(t *testing.T) {
	d := &Driver{}

	tests := []struct {
		name, url, uid, pwd string
		prefix              string
	}{
		{"native dsn", "tcp(db.local:3306)/orders", "app", "secret", "app:secret@tcp(db.local:3306)/orders"},
		{"url form", "mysql://db.local:3307/orders", "app", "secret", "app:secret@tcp(db.local:3307)/orders"},
		{"embedded user", "root:pw@tcp(db.local:3306)/orders", "", "", "root:pw@tcp(db.local:3306)/orders"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := d.BuildDSN(tt.url, tt.uid, tt.pwd)
			if err != nil {
				t.Fatalf("BuildDSN failed: %v", err)
			}
			if !strings.HasPrefix(dsn, tt.prefix) {
				t.Errorf("dsn = %q, want prefix %q", dsn, tt.prefix)
			}
			if !strings.Contains(dsn, "parseTime=true") {
				t.Errorf("dsn %q must enable parseTime", dsn)
			}
		})
	}

	if _, err := d.BuildDSN("", "u", "p"); !errors.Is(err, datasource.ErrIllegalArgument) {
		t.Errorf("expected ErrIllegalArgument, got %v", err)
	}
}
