package cmd

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/studyplanner/internal/clierr"
	"github.com/twiced-technology-gmbh/studyplanner/internal/config"
)

func exportTestCmd(t *testing.T, scale string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "export"}
	c.Flags().StringP("output", "o", "", "")
	c.Flags().String("ratio", "", "")
	c.Flags().String("format", "", "")
	c.Flags().Float64("scale", 0, "")
	if scale != "" {
		if err := c.Flags().Set("scale", scale); err != nil {
			t.Fatalf("Set scale failed: %v", err)
		}
	}
	return c
}

func TestExportFlagsScale(t *testing.T) {
	tests := []struct {
		scale   string
		want    float64
		wantErr bool
	}{
		{"", 1, false},
		{"2", 2, false},
		{"4", 4, false},
		{"1000000", 0, true},
		{"0", 0, true},
		{"-1", 0, true},
	}
	for _, tt := range tests {
		t.Run("scale="+tt.scale, func(t *testing.T) {
			cfg := config.NewDefault("test")
			cfg.SetDir(t.TempDir())
			opts, _, err := exportFlags(exportTestCmd(t, tt.scale), cfg)
			if tt.wantErr {
				if clierr.CodeOf(err) != clierr.InvalidInput {
					t.Errorf("Expected INVALID_INPUT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("exportFlags failed: %v", err)
			}
			if opts.Scale != tt.want {
				t.Errorf("Expected scale %g, got %g", tt.want, opts.Scale)
			}
		})
	}
}
