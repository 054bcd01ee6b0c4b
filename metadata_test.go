package custody

import (
	"testing"

	"github.com/senda-one/custody/errors"
)

func TestMetadataValidate(t *testing.T) {
	cases := map[string]struct {
		meta    *Metadata
		wantErr *errors.Error
	}{
		"valid":          {meta: &Metadata{Schema: 1}},
		"future schema":  {meta: &Metadata{Schema: 42}},
		"nil":            {meta: nil, wantErr: errors.ErrMetadata},
		"missing schema": {meta: &Metadata{}, wantErr: errors.ErrMetadata},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := tc.meta.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
			} else if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestMetadataCopy(t *testing.T) {
	meta := &Metadata{Schema: 3}
	cpy := meta.Copy()
	cpy.Schema = 9
	if meta.Schema != 3 {
		t.Fatal("copy must not share state")
	}

	var nilMeta *Metadata
	if nilMeta.Copy() != nil {
		t.Fatal("copy of nil must be nil")
	}
}
