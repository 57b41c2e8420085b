package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAndNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "trailing semicolon stripped",
			input: "SELECT SUM(total_amount) AS total FROM shop.orders WHERE order_date BETWEEN '2023-01-01' AND '2023-12-31';",
			want:  "SELECT SUM(total_amount) AS total FROM shop.orders WHERE order_date BETWEEN '2023-01-01' AND '2023-12-31'",
		},
		{
			name:  "whitespace around semicolon",
			input: "  SELECT 1  ;  \n",
			want:  "SELECT 1",
		},
		{
			name:  "semicolon inside string literal",
			input: "SELECT * FROM notes WHERE body = 'a;b'",
			want:  "SELECT * FROM notes WHERE body = 'a;b'",
		},
		{
			name:  "doubled quote escape",
			input: "SELECT 'it''s;fine'",
			want:  "SELECT 'it''s;fine'",
		},
		{
			name:  "backslash escape",
			input: `SELECT 'it\'s;fine'`,
			want:  `SELECT 'it\'s;fine'`,
		},
		{
			name:  "semicolon in backtick identifier",
			input: "SELECT `odd;name` FROM t",
			want:  "SELECT `odd;name` FROM t",
		},
		{
			name:  "semicolon in comments",
			input: "SELECT 1 -- one; two\n/* three; */ # four;\n",
			want:  "SELECT 1 -- one; two\n/* three; */ # four;",
		},
		{
			name:  "terminator before trailing comment",
			input: "SELECT COUNT(*) FROM orders; -- total; per shop",
			want:  "SELECT COUNT(*) FROM orders -- total; per shop",
		},
		{
			name:  "terminator after quoted semicolon",
			input: "SELECT * FROM notes WHERE body = 'end;';",
			want:  "SELECT * FROM notes WHERE body = 'end;'",
		},
		{
			name:    "doubled terminator",
			input:   "SELECT 1;;",
			wantErr: ErrMultipleStatements,
		},
		{
			name:    "statement hidden after a comment",
			input:   "SELECT 1 /* x */; DELETE FROM orders",
			wantErr: ErrMultipleStatements,
		},
		{
			name:    "comment only",
			input:   "-- nothing to run;",
			wantErr: ErrEmptyQuery,
		},
		{
			name:    "two statements",
			input:   "SELECT 1; DROP TABLE orders;",
			wantErr: ErrMultipleStatements,
		},
		{
			name:    "empty",
			input:   "   ;  ",
			wantErr: ErrEmptyQuery,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateAndNormalize(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, got.Error, tt.wantErr)
				return
			}
			assert.NoError(t, got.Error)
			assert.Equal(t, tt.want, got.NormalizedSQL)
		})
	}
}
