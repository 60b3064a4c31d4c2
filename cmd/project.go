package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/CosmoTheDev/cgconsole/internal/report"
	"github.com/CosmoTheDev/cgconsole/internal/repository"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/spf13/cobra"
)

var (
	projectFormat  string
	registerURL    string
	registerLang   string
	registerParent string
	registerDetect bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "List and register source projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects registered with the backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := report.ParseFormat(projectFormat)
		if err != nil {
			return err
		}
		e, err := loadEnv(nil)
		if err != nil {
			return err
		}
		projects, err := e.backend.Projects(cmd.Context())
		if err != nil {
			return err
		}
		return report.Projects(os.Stdout, format, projects)
	},
}

var projectRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a project by repository URL",
	Long: `Registers a source project with the backend. The backend clones the
repository and indexes it for clone detection.

With --detect-language the primary language is looked up on GitHub or GitLab
when --language is not given. Tokens from git.github / git.gitlab in the
config are used when present.`,
	Example: `  cgconsole project register --url https://github.com/openssl/openssl --language C
  cgconsole project register --url https://github.com/libressl/portable --parent openssl --detect-language`,
	RunE: runProjectRegister,
}

func init() {
	projectListCmd.Flags().StringVarP(&projectFormat, "format", "f", report.FormatTable, "output format: table|json|yaml")

	projectRegisterCmd.Flags().StringVar(&registerURL, "url", "", "repository URL (required)")
	projectRegisterCmd.Flags().StringVar(&registerLang, "language", "", "primary language of the project")
	projectRegisterCmd.Flags().StringVar(&registerParent, "parent", "", "name of the project this one was cloned from")
	projectRegisterCmd.Flags().BoolVar(&registerDetect, "detect-language", false, "look up the language on the hosting provider")
	_ = projectRegisterCmd.MarkFlagRequired("url")

	projectCmd.AddCommand(projectListCmd, projectRegisterCmd)
}

func runProjectRegister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := loadEnv(nil)
	if err != nil {
		return err
	}

	p := models.NewProject{
		URL:      strings.TrimSpace(registerURL),
		Language: strings.TrimSpace(registerLang),
		Parent:   strings.TrimSpace(registerParent),
	}
	if _, err := repository.ParseURL(p.URL); err != nil {
		return err
	}

	if p.Language == "" && registerDetect {
		detector, err := repository.NewLanguageDetector(e.cfg.Git)
		if err != nil {
			return err
		}
		lang, err := detector.Detect(ctx, p.URL)
		if err != nil {
			return fmt.Errorf("detecting language: %w", err)
		}
		p.Language = lang
		fmt.Println(dimStyle.Render(fmt.Sprintf("Detected language: %s", lang)))
	}

	if err := e.backend.RegisterProject(ctx, p); err != nil {
		return err
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Registered %s", p.URL)))
	return nil
}
