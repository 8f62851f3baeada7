// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"testing"
)

func TestSignatureString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		sig  Signature
		want string
	}{
		{"empty", Signature{}, "()"},
		{"required", Signature{Required: []string{"a", "b"}}, "(a, b)"},
		{
			"full",
			Signature{Required: []string{"a"}, Defaults: []Default{{Name: "b", Value: "2"}}, Variadic: "args", Keywords: "kwargs"},
			"(a, b=2, *args, **kwargs)",
		},
		{"keywords only", Signature{Keywords: "opts"}, "(**opts)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.sig.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSignatureValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sig     Signature
		wantErr bool
	}{
		{"valid", Signature{Required: []string{"a"}, Defaults: []Default{{Name: "b"}}, Variadic: "rest", Keywords: "kw"}, false},
		{"duplicate", Signature{Required: []string{"a"}, Defaults: []Default{{Name: "a"}}}, true},
		{"slot clashes with parameter", Signature{Required: []string{"args"}, Variadic: "args"}, true},
		{"not an identifier", Signature{Required: []string{"my-arg"}}, true},
		{"leading digit", Signature{Keywords: "1kw"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.sig.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSignature) {
				t.Errorf("Validate() error should wrap ErrInvalidSignature, got %v", err)
			}
		})
	}
}

func TestValueString(t *testing.T) {
	t.Parallel()

	if got := Flag().String(); got != "true" {
		t.Errorf("Flag().String() = %q, want %q", got, "true")
	}
	if !Flag().IsFlag() {
		t.Error("Flag().IsFlag() = false, want true")
	}
	if got := Text("x").String(); got != "x" {
		t.Errorf("Text(x).String() = %q, want %q", got, "x")
	}
	if Text("true").IsFlag() {
		t.Error("Text(true).IsFlag() = true, want false")
	}
}
