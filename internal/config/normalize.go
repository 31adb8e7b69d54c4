package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeDefaults()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.LibraryDir) == "" {
		c.LibraryDir = defaultLibraryDir
	}
	if c.LibraryDir, err = expandPath(c.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.LogDir) == "" {
		c.LogDir = defaultLogDir
	}
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.ScriptsDir != "" {
		if c.ScriptsDir, err = expandPath(c.ScriptsDir); err != nil {
			return fmt.Errorf("paths.scripts_dir: %w", err)
		}
	}
	c.APIBind = strings.TrimSpace(c.APIBind)
	c.APIToken = strings.TrimSpace(c.APIToken)
	return nil
}

func (c *Config) normalizeTools() {
	setDefault := func(field *string, fallback string) {
		if strings.TrimSpace(*field) == "" {
			*field = fallback
		} else {
			*field = strings.TrimSpace(*field)
		}
	}
	setDefault(&c.Tools.Rsync, defaultRsync)
	setDefault(&c.Tools.Transcoder, defaultTranscoder)
	setDefault(&c.Tools.PitiviRender, defaultPitiviRender)
	setDefault(&c.Tools.Cinelerra, defaultCinelerra)
	setDefault(&c.Tools.ProxyChange, defaultProxyChange)
	setDefault(&c.Tools.Uploader, defaultUploader)
	setDefault(&c.Tools.Archiver, defaultArchiver)
	setDefault(&c.Tools.Slideshow, defaultSlideshow)
}

func (c *Config) normalizeDefaults() {
	if c.Convert.Factor == 0 {
		c.Convert.Factor = defaultConvertFactor
	}
	c.Render.Mode = strings.ToLower(strings.TrimSpace(c.Render.Mode))
	if c.Render.Mode == "" {
		c.Render.Mode = defaultRenderMode
	}
	if strings.TrimSpace(c.Render.EDLFile) == "" {
		c.Render.EDLFile = defaultEDLFile
	}
	if strings.TrimSpace(c.Render.OutputFile) == "" {
		c.Render.OutputFile = defaultOutputFile
	}
	if c.Publish.Category == 0 {
		c.Publish.Category = defaultPublishCategory
	}
	if strings.TrimSpace(c.Publish.Privacy) == "" {
		c.Publish.Privacy = defaultPublishPrivacy
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		c.Workflow.ErrorRetryInterval = defaultErrorRetryInterval
	}
	if c.Workflow.JobTimeout < 0 {
		c.Workflow.JobTimeout = defaultJobTimeout
	}
	if c.Workflow.MinFreeSpaceGiB < 0 {
		c.Workflow.MinFreeSpaceGiB = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
