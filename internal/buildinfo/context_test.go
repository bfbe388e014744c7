package buildinfo

import (
	"testing"
)

func TestContext_Version(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{
			name: "nil context",
			ctx:  nil,
			want: UnknownValue,
		},
		{
			name: "empty version",
			ctx:  NewContext("", "2024-01-01"),
			want: UnknownValue,
		},
		{
			name: "valid version",
			ctx:  NewContext("1.0.0", "2024-01-01"),
			want: "1.0.0",
		},
		{
			name: "version with pre-release tag",
			ctx:  NewContext("1.0.0-beta.1", "2024-01-01"),
			want: "1.0.0-beta.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ctx.Version()
			if got != tt.want {
				t.Errorf("Context.Version() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContext_BuildDate(t *testing.T) {
	tests := []struct {
		name string
		ctx  *Context
		want string
	}{
		{
			name: "nil context",
			ctx:  nil,
			want: UnknownValue,
		},
		{
			name: "empty build date",
			ctx:  NewContext("1.0.0", ""),
			want: UnknownValue,
		},
		{
			name: "valid build date",
			ctx:  NewContext("1.0.0", "2024-01-01T12:00:00Z"),
			want: "2024-01-01T12:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.ctx.BuildDate()
			if got != tt.want {
				t.Errorf("Context.BuildDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContext_DerivedNames(t *testing.T) {
	ctx := NewContext("1.2.3", "2024-01-01")

	if got, want := ctx.Release(), "exodash@1.2.3"; got != want {
		t.Errorf("Release() = %v, want %v", got, want)
	}
	if got, want := ctx.UserAgent(), "exodash/1.2.3"; got != want {
		t.Errorf("UserAgent() = %v, want %v", got, want)
	}
	if got, want := ctx.String(), "exodash 1.2.3 (built 2024-01-01)"; got != want {
		t.Errorf("String() = %v, want %v", got, want)
	}

	var nilCtx *Context
	if got, want := nilCtx.Release(), "exodash@unknown"; got != want {
		t.Errorf("nil Release() = %v, want %v", got, want)
	}
}
