package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CosmoTheDev/cgconsole/internal/config"
	"github.com/CosmoTheDev/cgconsole/internal/scheduler"
	"github.com/CosmoTheDev/cgconsole/internal/workflow"
	"github.com/CosmoTheDev/cgconsole/models"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	configHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	configSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	configSectionStyle = lipgloss.NewStyle().Bold(true).MarginTop(1).MarginBottom(1)
)

var configUICmd = &cobra.Command{
	Use:   "edit-ui",
	Short: "Interactive configuration editor",
	Long: `Edits one section of the configuration at a time and saves it.

Sections:
  - Backend: REST API origin, prefix and timeout
  - Detection: poll interval, default method, method checking
  - Database: journal driver, SQLite path, MySQL DSN
  - Git: GitHub and GitLab tokens used for project registration
  - Notify: Slack, webhook, email and Telegram channels
  - Schedules: add a cron-scheduled detection run`,
	RunE: runConfigUI,
}

func runConfigUI(cmd *cobra.Command, args []string) error {
	fmt.Println()
	fmt.Println(configHeaderStyle.Render("  cgconsole · configuration editor"))
	fmt.Println(dimStyle.Render("  Pick a section, edit values, save when done"))

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	section := "backend"
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Configuration section").
				Options(
					huh.NewOption("Backend", "backend"),
					huh.NewOption("Detection", "detection"),
					huh.NewOption("Database", "database"),
					huh.NewOption("Git providers", "git"),
					huh.NewOption("Notifications", "notify"),
					huh.NewOption("Schedules", "schedules"),
				).
				Value(&section),
		),
	).Run(); err != nil {
		return err
	}
	return runSectionEditor(cfg, section)
}

var sectionEditors = map[string]func(*config.Config) error{
	"backend":   editBackendSettings,
	"detection": editDetectionSettings,
	"database":  editDatabaseSettings,
	"git":       editGitSettings,
	"notify":    editNotifySettings,
	"schedules": addSchedule,
}

func runSectionEditor(cfg *config.Config, section string) error {
	edit, ok := sectionEditors[section]
	if !ok {
		return fmt.Errorf("unknown section: %s", section)
	}
	if err := edit(cfg); err != nil {
		return err
	}

	save := true
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save changes?").
				Value(&save),
		),
	).Run(); err != nil {
		return err
	}
	if !save {
		fmt.Println(dimStyle.Render("  Discarded."))
		return nil
	}
	configPath, err := config.ConfigPath(cfgFile)
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Println(configSuccessStyle.Render("  ✓ Configuration saved"))
	return nil
}

func editBackendSettings(cfg *config.Config) error {
	fmt.Println(configSectionStyle.Render("  Backend"))

	url := cfg.Backend.URL
	prefix := cfg.Backend.APIPrefix
	timeout := strconv.Itoa(cfg.Backend.Timeout)

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Placeholder("http://0.0.0.0:8000").
				Validate(requireText("backend URL")).
				Value(&url),
			huh.NewInput().
				Title("API prefix").
				Placeholder("/api/v1").
				Value(&prefix),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Validate(positiveInt).
				Value(&timeout),
		),
	).Run(); err != nil {
		return err
	}

	cfg.Backend.URL = strings.TrimSpace(url)
	cfg.Backend.APIPrefix = strings.TrimSpace(prefix)
	cfg.Backend.Timeout = parseIntOrDefault(timeout, 30)
	return nil
}

func editDetectionSettings(cfg *config.Config) error {
	fmt.Println(configSectionStyle.Render("  Detection"))

	interval := strconv.Itoa(cfg.Detection.PollInterval)
	method := cfg.Detection.DefaultMethod
	strict := cfg.Detection.StrictMethods

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Status poll interval (seconds)").
				Validate(positiveInt).
				Value(&interval),
			huh.NewSelect[string]().
				Title("Default method").
				Options(methodOptions()...).
				Value(&method),
			huh.NewConfirm().
				Title("Reject unknown methods").
				Description("When off, any method name is passed to the backend unchanged").
				Value(&strict),
		),
	).Run(); err != nil {
		return err
	}

	cfg.Detection.PollInterval = parseIntOrDefault(interval, 5)
	cfg.Detection.DefaultMethod = method
	cfg.Detection.StrictMethods = strict
	return nil
}

func editDatabaseSettings(cfg *config.Config) error {
	fmt.Println(configSectionStyle.Render("  Database"))

	driver := cfg.Database.Driver
	if driver == "" {
		driver = "sqlite"
	}
	path := cfg.Database.Path
	dsn := cfg.Database.DSN

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Driver").
				Options(
					huh.NewOption("SQLite", "sqlite"),
					huh.NewOption("MySQL", "mysql"),
				).
				Value(&driver),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SQLite path").
				Placeholder("~/.cgconsole/journal.db").
				Value(&path),
		).WithHideFunc(func() bool { return driver != "sqlite" }),
		huh.NewGroup(
			huh.NewInput().
				Title("MySQL DSN").
				Placeholder("user:pass@tcp(host:3306)/cgconsole").
				Validate(requireText("DSN")).
				Value(&dsn),
		).WithHideFunc(func() bool { return driver != "mysql" }),
	).Run(); err != nil {
		return err
	}

	cfg.Database.Driver = driver
	cfg.Database.Path = strings.TrimSpace(path)
	cfg.Database.DSN = strings.TrimSpace(dsn)
	return nil
}

func editGitSettings(cfg *config.Config) error {
	fmt.Println(configSectionStyle.Render("  Git providers"))

	var githubToken, githubHost, gitlabToken, gitlabHost string
	if len(cfg.Git.GitHub) > 0 {
		githubToken, githubHost = cfg.Git.GitHub[0].Token, cfg.Git.GitHub[0].Host
	}
	if len(cfg.Git.GitLab) > 0 {
		gitlabToken, gitlabHost = cfg.Git.GitLab[0].Token, cfg.Git.GitLab[0].Host
	}

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("GitHub token").
				Placeholder("ghp_...").
				EchoMode(huh.EchoModePassword).
				Value(&githubToken),
			huh.NewInput().
				Title("GitHub host").
				Placeholder("github.com").
				Value(&githubHost),
			huh.NewInput().
				Title("GitLab token").
				Placeholder("glpat-...").
				EchoMode(huh.EchoModePassword).
				Value(&gitlabToken),
			huh.NewInput().
				Title("GitLab host").
				Placeholder("gitlab.com").
				Value(&gitlabHost),
		),
	).Run(); err != nil {
		return err
	}

	cfg.Git.GitHub = setFirst(cfg.Git.GitHub, config.GitHubConfig{
		Token: strings.TrimSpace(githubToken), Host: strings.TrimSpace(githubHost),
	})
	cfg.Git.GitLab = setFirst(cfg.Git.GitLab, config.GitLabConfig{
		Token: strings.TrimSpace(gitlabToken), Host: strings.TrimSpace(gitlabHost),
	})
	return nil
}

// setFirst replaces the first entry of list, or appends v when list is empty
// and v is not the zero value. Further entries are kept as configured.
func setFirst[T comparable](list []T, v T) []T {
	var zero T
	if len(list) == 0 {
		if v == zero {
			return nil
		}
		return []T{v}
	}
	list[0] = v
	return list
}

func editNotifySettings(cfg *config.Config) error {
	fmt.Println(configSectionStyle.Render("  Notifications"))

	n := cfg.Notify
	minConfidence := strconv.FormatFloat(n.MinConfidence, 'f', 2, 64)
	smtpPort := strconv.Itoa(n.Email.SMTPPort)
	if n.Email.SMTPPort == 0 {
		smtpPort = "587"
	}

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Minimum confidence").
				Description("Vulnerable rows below this confidence are not announced (0 to 1)").
				Validate(func(s string) error {
					f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
					if err != nil || f < 0 || f > 1 {
						return fmt.Errorf("enter a number between 0 and 1")
					}
					return nil
				}).
				Value(&minConfidence),
			huh.NewInput().
				Title("Slack webhook URL").
				Placeholder("https://hooks.slack.com/...").
				Value(&n.Slack.WebhookURL),
			huh.NewInput().
				Title("Webhook URL").
				Placeholder("https://your-endpoint.example/hook").
				Value(&n.Webhook.URL),
			huh.NewInput().
				Title("Webhook secret").
				Description("Signs the payload with HMAC-SHA256").
				EchoMode(huh.EchoModePassword).
				Value(&n.Webhook.Secret),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SMTP host").
				Placeholder("smtp.example.com").
				Value(&n.Email.SMTPHost),
			huh.NewInput().
				Title("SMTP port").
				Validate(positiveInt).
				Value(&smtpPort),
			huh.NewInput().
				Title("SMTP username").
				Value(&n.Email.Username),
			huh.NewInput().
				Title("SMTP password").
				EchoMode(huh.EchoModePassword).
				Value(&n.Email.Password),
			huh.NewInput().
				Title("From").
				Placeholder("cgconsole@example.com").
				Value(&n.Email.From),
			huh.NewInput().
				Title("To").
				Description("Comma-separated recipients").
				Value(&n.Email.To),
			huh.NewConfirm().
				Title("Implicit TLS").
				Value(&n.Email.UseTLS),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram bot token").
				EchoMode(huh.EchoModePassword).
				Value(&n.Telegram.BotToken),
			huh.NewInput().
				Title("Telegram chat ID").
				Value(&n.Telegram.ChatID),
		),
	).Run(); err != nil {
		return err
	}

	n.MinConfidence = parseFloatOrZero(minConfidence)
	n.Email.SMTPPort = parseIntOrDefault(smtpPort, 587)
	n.Slack.WebhookURL = strings.TrimSpace(n.Slack.WebhookURL)
	n.Webhook.URL = strings.TrimSpace(n.Webhook.URL)
	n.Email.SMTPHost = strings.TrimSpace(n.Email.SMTPHost)
	n.Telegram.BotToken = strings.TrimSpace(n.Telegram.BotToken)
	n.Telegram.ChatID = strings.TrimSpace(n.Telegram.ChatID)
	cfg.Notify = n
	return nil
}

func addSchedule(cfg *config.Config) error {
	fmt.Println(configSectionStyle.Render("  New schedule"))

	s := config.ScheduleConfig{
		Expr:    "@daily",
		Method:  cfg.Detection.DefaultMethod,
		Enabled: true,
	}
	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Validate(func(v string) error {
					v = strings.TrimSpace(v)
					if v == "" {
						return fmt.Errorf("name is required")
					}
					for _, existing := range cfg.Schedules {
						if existing.Name == v {
							return fmt.Errorf("schedule %q already exists", v)
						}
					}
					return nil
				}).
				Value(&s.Name),
			huh.NewInput().
				Title("Cron expression").
				Description(`Five fields or a descriptor such as "@every 6h"`).
				Validate(scheduler.Validate).
				Value(&s.Expr),
			huh.NewInput().
				Title("Bug").
				Validate(requireText("bug")).
				Value(&s.BugID),
			huh.NewInput().
				Title("Project").
				Validate(requireText("project")).
				Value(&s.Project),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Commit (optional)").
				Description("Defaults to the first candidate of each search").
				Value(&s.Commit),
			huh.NewSelect[string]().
				Title("Method").
				Options(methodOptions()...).
				Value(&s.Method),
			huh.NewInput().
				Title("Cutoff date (optional)").
				Placeholder("YYYY-MM-DD").
				Validate(func(v string) error {
					_, err := workflow.NormalizeDate(v)
					return err
				}).
				Value(&s.Date),
			huh.NewInput().
				Title("Patch file (optional)").
				Value(&s.PatchFile),
		),
	).Run(); err != nil {
		return err
	}

	s.Name = strings.TrimSpace(s.Name)
	s.Commit = strings.TrimSpace(s.Commit)
	s.PatchFile = strings.TrimSpace(s.PatchFile)
	cfg.Schedules = append(cfg.Schedules, s)
	return nil
}

func methodOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(models.Methods))
	for _, m := range models.Methods {
		opts = append(opts, huh.NewOption(m.String(), m.String()))
	}
	return opts
}

func requireText(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive whole number")
	}
	return nil
}

func parseFloatOrZero(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseIntOrDefault(s string, def int) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}
