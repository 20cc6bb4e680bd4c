package mib

import "testing"

func TestParseOID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "1.3.6.1.2.1", "1.3.6.1.2.1", false},
		{"leading dot", ".1.3.6.1", "1.3.6.1", false},
		{"single arc", "0", "0", false},
		{"max arc", "1.4294967295", "1.4294967295", false},
		{"empty", "", "", false},
		{"empty arc", "1..3", "", true},
		{"trailing dot", "1.3.", "", true},
		{"overflow", "1.4294967296", "", true},
		{"letters", "1.x.3", "", true},
		{"negative", "1.-3", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOID(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOID(%q) error = %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseOID(%q) = %q, want %q", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestOID_Append(t *testing.T) {
	base := MustParseOID("1.3.6.1")
	child := base.Append(2, 1)

	if got := child.String(); got != "1.3.6.1.2.1" {
		t.Errorf("Append = %q, want %q", got, "1.3.6.1.2.1")
	}
	if got := base.String(); got != "1.3.6.1" {
		t.Errorf("base modified to %q", got)
	}

	// Appending twice to the same base must not share storage.
	a := base.Append(7)
	b := base.Append(9)
	if a.Last() != 7 || b.Last() != 9 {
		t.Errorf("Append shares backing array: a=%v b=%v", a, b)
	}
}

func TestOID_HasPrefix(t *testing.T) {
	tests := []struct {
		oid, prefix string
		want        bool
	}{
		{"1.3.6.1.2.1.17.1.4.1.1.5", "1.3.6.1.2.1.17.1.4.1.1", true},
		{"1.3.6.1.2.1.17.1.4.1.1", "1.3.6.1.2.1.17.1.4.1.1", true},
		{"1.3.6.1.2.1.17.1.4.1.2.1", "1.3.6.1.2.1.17.1.4.1.1", false},
		{"1.3.6.1.2.1.17.1.4.1.10", "1.3.6.1.2.1.17.1.4.1.1", false},
		{"1.3.6", "1.3.6.1", false},
	}

	for _, tt := range tests {
		got := MustParseOID(tt.oid).HasPrefix(MustParseOID(tt.prefix))
		if got != tt.want {
			t.Errorf("%s.HasPrefix(%s) = %v, want %v", tt.oid, tt.prefix, got, tt.want)
		}
	}
}

func TestOID_TrimPrefix(t *testing.T) {
	oid := MustParseOID("1.3.6.1.2.1.17.4.3.1.2.0.17.34.51.68.85")
	suffix := oid.TrimPrefix(MustParseOID("1.3.6.1.2.1.17.4.3.1.2"))
	if got := suffix.String(); got != "0.17.34.51.68.85" {
		t.Errorf("TrimPrefix = %q, want %q", got, "0.17.34.51.68.85")
	}

	if got := oid.TrimPrefix(MustParseOID("1.3.6.1.4")); got != nil {
		t.Errorf("TrimPrefix of unrelated prefix = %v, want nil", got)
	}
}

func TestOID_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.3.6.1", "1.3.6.1", 0},
		{"1.3.6.1", "1.3.6.2", -1},
		{"1.3.6.10", "1.3.6.9", 1},
		{"1.3.6", "1.3.6.1", -1},
	}

	for _, tt := range tests {
		if got := MustParseOID(tt.a).Compare(MustParseOID(tt.b)); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOID_Last(t *testing.T) {
	if got := MustParseOID("1.3.6.1.2.1.17.7.1.4.3.1.5.42").Last(); got != 42 {
		t.Errorf("Last = %d, want 42", got)
	}
	if got := OID(nil).Last(); got != 0 {
		t.Errorf("Last of empty OID = %d, want 0", got)
	}
}
