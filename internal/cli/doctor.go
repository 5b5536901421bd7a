package cli

import (
	"os"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"

	"github.com/alex4udak-blip/HR-bot--sub007/config"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/output"
	"github.com/alex4udak-blip/HR-bot--sub007/internal/upload"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(cmd.OutOrStdout())
			cfg := deps.Config
			ok := true

			if cfg.ChromePath != "" {
				if _, err := os.Stat(cfg.ChromePath); err != nil {
					f.SetupCheck("Browser", false, cfg.ChromePath+" not found. Fix CHROME_EXECUTABLE_PATH or chrome_path")
					ok = false
				} else {
					f.SetupCheck("Browser", true, cfg.ChromePath)
				}
			} else if path, has := launcher.LookPath(); has {
				f.SetupCheck("Browser", true, path)
			} else {
				f.SetupCheck("Browser", true, "none installed, one will be downloaded on first run")
			}

			if cfg.Source != "" {
				f.SetupCheck("Config file", true, cfg.Source)
			} else {
				f.SetupCheck("Config file", true, "not present, using defaults ("+config.FilePath()+")")
			}

			for _, dir := range []struct{ name, path string }{
				{"State directory", cfg.StateDir},
				{"Debug directory", cfg.DebugDir},
			} {
				if err := checkWritable(dir.path); err != nil {
					f.SetupCheck(dir.name, false, err.Error())
					ok = false
				} else {
					f.SetupCheck(dir.name, true, dir.path)
				}
			}

			if cfg.Credentials.Present() {
				f.SetupCheck("Google sign-in", true, "configured")
			} else if cfg.Credentials.Email != "" || cfg.Credentials.Password != "" {
				f.SetupCheck("Google sign-in", false, "set both GOOGLE_EMAIL and GOOGLE_PASSWORD")
				ok = false
			} else {
				f.SetupCheck("Google sign-in", true, "not configured, Meet is joined as guest")
			}

			if cfg.S3.Enabled() {
				if _, err := upload.NewS3(cfg.S3); err != nil {
					f.SetupCheck("S3 upload", false, err.Error()+". Recordings stay local")
					ok = false
				} else {
					f.SetupCheck("S3 upload", true, cfg.S3.Endpoint+"/"+cfg.S3.Bucket)
				}
			} else {
				f.SetupCheck("S3 upload", true, "disabled")
			}

			if ok {
				f.Success("\nAll prerequisites met. Ready to record!")
			} else {
				f.Warning("\nSome prerequisites are missing.")
			}
			return nil
		},
	}
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
