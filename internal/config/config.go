package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	RepoRoot string         `yaml:"repo_root"`
	Output   OutputConfig   `yaml:"output"`
	Site     SiteConfig     `yaml:"site"`
	GitHub   GitHubConfig   `yaml:"github"`
	Source   *SourceConfig  `yaml:"source,omitempty"`
	Describe DescribeConfig `yaml:"describe"`
	StateDB  string         `yaml:"state_db,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// SiteConfig holds settings for the hosted site layout.
type SiteConfig struct {
	// BasePath is the path prefix the site is hosted under (GitHub Pages
	// project sites live below /<repo>/).
	BasePath string `yaml:"base_path"`
	// MkDocsConfig is the mkdocs.yml location relative to the repo root.
	// Only its site_url key is consulted.
	MkDocsConfig string `yaml:"mkdocs_config"`
}

// GitHubConfig identifies the repository that lab links point back to.
type GitHubConfig struct {
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch,omitempty"`
}

// BaseURL returns the browse URL prefix for files in the repository.
func (g GitHubConfig) BaseURL() string {
	return fmt.Sprintf("https://github.com/%s/blob/%s", g.Repo, g.Branch)
}

// SourceConfig optionally points at a remote course repository. When set and
// the repo root does not exist, the repository is cloned there first.
type SourceConfig struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
}

// DescribeConfig governs meta description generation.
type DescribeConfig struct {
	MaxLength int `yaml:"max_length"`
	MinLength int `yaml:"min_length"`
	// InjectFrontMatter controls whether derived titles and descriptions
	// are written into each page's front matter. Defaults to on.
	InjectFrontMatter *bool `yaml:"inject_front_matter,omitempty"`
}

// Inject reports whether front matter injection is enabled.
func (d DescribeConfig) Inject() bool {
	return d.InjectFrontMatter == nil || *d.InjectFrontMatter
}

// Load loads configuration from the specified file. A missing file is not an
// error: the tool is designed to run with no arguments inside the course
// repository, so defaults cover the whole configuration surface.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	config := &Config{}

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expandedData), config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns a configuration with all defaults applied and no file read.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.RepoRoot == "" {
		c.RepoRoot = "."
	}
	if c.Output.Directory == "" {
		c.Output.Directory = filepath.Join("build", "docs")
	}
	if c.Site.BasePath == "" {
		c.Site.BasePath = "/ai-agent-course"
	}
	if c.Site.MkDocsConfig == "" {
		c.Site.MkDocsConfig = "mkdocs.yml"
	}
	if c.GitHub.Repo == "" {
		c.GitHub.Repo = "kshvakov/ai-agent-course"
	}
	if c.GitHub.Branch == "" {
		c.GitHub.Branch = "main"
	}
	if c.Source != nil && c.Source.Branch == "" {
		c.Source.Branch = "main"
	}
	if c.Describe.MaxLength == 0 {
		c.Describe.MaxLength = 160
	}
	if c.Describe.MinLength == 0 {
		c.Describe.MinLength = 100
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Describe.MinLength <= 0 || c.Describe.MaxLength <= 0 {
		return fmt.Errorf("describe length bounds must be positive (min=%d, max=%d)", c.Describe.MinLength, c.Describe.MaxLength)
	}
	if c.Describe.MinLength >= c.Describe.MaxLength {
		return fmt.Errorf("describe min_length %d must be below max_length %d", c.Describe.MinLength, c.Describe.MaxLength)
	}
	if !strings.HasPrefix(c.Site.BasePath, "/") {
		return fmt.Errorf("site base_path %q must start with /", c.Site.BasePath)
	}
	outAbs, err := filepath.Abs(filepath.Join(c.RepoRoot, c.Output.Directory))
	if err != nil {
		return fmt.Errorf("failed to resolve output directory: %w", err)
	}
	bookAbs, err := filepath.Abs(c.BookDir())
	if err != nil {
		return fmt.Errorf("failed to resolve book directory: %w", err)
	}
	if strings.HasPrefix(outAbs+string(filepath.Separator), bookAbs+string(filepath.Separator)) {
		return fmt.Errorf("output directory %s must not be inside the book tree", outAbs)
	}
	return nil
}

// BookDir returns the default-locale book directory.
func (c *Config) BookDir() string {
	return filepath.Join(c.RepoRoot, "book")
}

// OutputDir returns the destination directory for generated docs.
func (c *Config) OutputDir() string {
	if filepath.IsAbs(c.Output.Directory) {
		return c.Output.Directory
	}
	return filepath.Join(c.RepoRoot, c.Output.Directory)
}

var siteURLPattern = regexp.MustCompile(`(?m)^\s*site_url:\s*(.+?)\s*$`)

// SiteURL reads the site_url key from mkdocs.yml. The file is matched with a
// single line-anchored regex rather than parsed: mkdocs configs routinely
// carry python-specific YAML tags that generic parsers reject. Returns ""
// when the file or the key is missing.
func (c *Config) SiteURL() string {
	path := c.Site.MkDocsConfig
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.RepoRoot, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	m := siteURLPattern.FindSubmatch(data)
	if m == nil {
		return ""
	}
	url := strings.TrimSpace(string(m[1]))
	url = strings.Trim(url, `"'`)
	return url
}

// loadEnvFile loads environment variables from a .env file if present.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}
