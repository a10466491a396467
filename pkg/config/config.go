// Package config holds the user configuration for mvn2get. A Config is
// a plain value: it is loaded once (flags win over the configuration
// file, which wins over the defaults) and passed into the resolver.
// Nothing in this repository reads configuration from process-wide
// state.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/groboclown/mvn2get/pkg/maven"
)

// DefaultFileName is the configuration file searched for in the
// working directory and the home directory.
const DefaultFileName = ".mvn2get.json"

// Log levels, least to most verbose.
const (
	LogWarn  = "warn"
	LogInfo  = "info"
	LogDebug = "debug"
	LogTrace = "trace"
)

// Config is the complete user configuration.
type Config struct {
	OutDir                    string
	ShowProgress              bool
	LogLevel                  string
	ProblemFile               string
	Recursive                 bool
	Overwrite                 bool
	DoRemoteDownload          bool
	IncludeDepManagement      bool
	CheckInLocal              bool
	NoPGP                     bool
	ProgressIndicators        string
	RemoteRepoURLs            []string
	LocalRepoURLs             []string
	PGPKeyServers             []string
	AcceptableLicenseURLs     []string
	AcceptableLicenseNames    []string
	AllowUnacceptableLicenses bool
	AllowNoLicense            bool
	RequireLicense            bool
	MislabeledArtifactGroups  map[string]maven.GroupRewrite
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutDir:                    ".",
		ShowProgress:              false,
		LogLevel:                  LogWarn,
		DoRemoteDownload:          true,
		CheckInLocal:              true,
		ProgressIndicators:        `|/-\`,
		RemoteRepoURLs:            append([]string(nil), defaultRemoteRepoURLs...),
		PGPKeyServers:             append([]string(nil), defaultPGPKeyServers...),
		AcceptableLicenseURLs:     append([]string(nil), defaultAcceptableLicenseURLs...),
		AcceptableLicenseNames:    append([]string(nil), defaultAcceptableLicenseNames...),
		AllowUnacceptableLicenses: true,
		AllowNoLicense:            true,
		MislabeledArtifactGroups:  defaultMislabeledGroups(),
	}
}

// Validate checks the invariants the resolver depends on and
// normalizes repository URLs to end in "/".
func (c *Config) Validate() error {
	if c.OutDir == "" {
		return fmt.Errorf("output directory not set")
	}
	switch c.LogLevel {
	case LogWarn, LogInfo, LogDebug, LogTrace:
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if len(c.RemoteRepoURLs) == 0 {
		return fmt.Errorf("no remote repositories configured")
	}
	for i, u := range c.RemoteRepoURLs {
		c.RemoteRepoURLs[i] = ensureSlash(u)
	}
	for i, u := range c.LocalRepoURLs {
		c.LocalRepoURLs[i] = ensureSlash(u)
	}
	if c.ProgressIndicators == "" {
		c.ProgressIndicators = `|/-\`
	}
	return nil
}

func ensureSlash(u string) string {
	if !strings.HasSuffix(u, "/") {
		return u + "/"
	}
	return u
}

// configFile mirrors the JSON layout. Pointer fields distinguish
// "absent" from zero values so a configuration file only overrides
// the keys it names.
type configFile struct {
	OutDir                    *string              `json:"outdir"`
	ShowProgress              *bool                `json:"show_progress"`
	LogLevel                  *string              `json:"log_level"`
	ProblemFile               *string              `json:"problem_file"`
	Recursive                 *bool                `json:"recursive"`
	Overwrite                 *bool                `json:"overwrite"`
	DoRemoteDownload          *bool                `json:"do_remote_download"`
	IncludeDepManagement      *bool                `json:"include_dep_management"`
	CheckInLocal              *bool                `json:"check_in_local"`
	NoPGP                     *bool                `json:"no_pgp"`
	ProgressIndicators        *string              `json:"progress_indicators"`
	RemoteRepoURLs            []string             `json:"remote_repo_urls"`
	LocalRepoURLs             []string             `json:"local_repo_urls"`
	PGPKeyServers             []string             `json:"pgp_key_servers"`
	AcceptableLicenseURLs     []string             `json:"acceptable_license_urls"`
	AcceptableLicenseNames    []string             `json:"acceptable_license_names"`
	AllowUnacceptableLicenses *bool                `json:"allow_unacceptable_licenses"`
	AllowNoLicense            *bool                `json:"allow_no_license"`
	RequireLicense            *bool                `json:"require_license"`
	MislabeledArtifactGroups  map[string][2]string `json:"mislabeled_artifact_groups"`
}

// Load reads a strict-JSON configuration file over c. Keys absent from
// the file keep their current values.
func (c *Config) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f configFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}

	setString(&c.OutDir, f.OutDir)
	setBool(&c.ShowProgress, f.ShowProgress)
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.ProblemFile, f.ProblemFile)
	setBool(&c.Recursive, f.Recursive)
	setBool(&c.Overwrite, f.Overwrite)
	setBool(&c.DoRemoteDownload, f.DoRemoteDownload)
	setBool(&c.IncludeDepManagement, f.IncludeDepManagement)
	setBool(&c.CheckInLocal, f.CheckInLocal)
	setBool(&c.NoPGP, f.NoPGP)
	setString(&c.ProgressIndicators, f.ProgressIndicators)
	setBool(&c.AllowUnacceptableLicenses, f.AllowUnacceptableLicenses)
	setBool(&c.AllowNoLicense, f.AllowNoLicense)
	setBool(&c.RequireLicense, f.RequireLicense)

	if f.RemoteRepoURLs != nil {
		c.RemoteRepoURLs = f.RemoteRepoURLs
	}
	if f.LocalRepoURLs != nil {
		c.LocalRepoURLs = f.LocalRepoURLs
	}
	if f.PGPKeyServers != nil {
		c.PGPKeyServers = f.PGPKeyServers
	}
	if f.AcceptableLicenseURLs != nil {
		c.AcceptableLicenseURLs = f.AcceptableLicenseURLs
	}
	if f.AcceptableLicenseNames != nil {
		c.AcceptableLicenseNames = f.AcceptableLicenseNames
	}
	if f.MislabeledArtifactGroups != nil {
		rewrites := make(map[string]maven.GroupRewrite, len(f.MislabeledArtifactGroups))
		for prefix, pair := range f.MislabeledArtifactGroups {
			rewrites[prefix] = maven.GroupRewrite{NewGroup: pair[0], NewArtifactPrefix: pair[1]}
		}
		c.MislabeledArtifactGroups = rewrites
	}
	return nil
}

// Discover loads the first configuration file found in the standard
// search order: the explicit path (an error if unreadable), then
// ./.mvn2get.json, then $HOME/.mvn2get.json. The defaults survive when
// no file exists.
func Discover(explicit string) (Config, error) {
	c := Default()
	if explicit != "" {
		if err := c.Load(explicit); err != nil {
			return c, err
		}
		return c, nil
	}

	candidates := []string{DefaultFileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultFileName))
	}
	for _, path := range candidates {
		err := c.Load(path)
		if err == nil {
			return c, nil
		}
		if os.IsNotExist(err) {
			continue
		}
		return c, err
	}
	return c, nil
}
