package config

const (
	defaultLibraryDir = "~/.local/share/moviola/projects"
	defaultLogDir     = "~/.local/share/moviola/logs"
	defaultScriptsDir = "~/.local/share/moviola/scripts"
	defaultAPIBind    = "127.0.0.1:7519"

	defaultRsync        = "rsync"
	defaultTranscoder   = "convert_gstream.sh"
	defaultPitiviRender = "render_pitivi.sh"
	defaultCinelerra    = "cin"
	defaultProxyChange  = "cinelerra-proxychange.py"
	defaultUploader     = "upload_video.py"
	defaultArchiver     = "archive_to_s3.py"
	defaultSlideshow    = "make_slideshow.py"

	defaultConvertFactor   = 0.5
	defaultRenderMode      = "pitivi"
	defaultEDLFile         = "edl.xges"
	defaultOutputFile      = "output.mp4"
	defaultPublishCategory = 28
	defaultPublishPrivacy  = "public"

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultJobTimeout         = 0
	defaultMinFreeSpaceGiB    = 5

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			ScriptsDir: defaultScriptsDir,
			APIBind:    defaultAPIBind,
		},
		Tools: Tools{
			Rsync:        defaultRsync,
			Transcoder:   defaultTranscoder,
			PitiviRender: defaultPitiviRender,
			Cinelerra:    defaultCinelerra,
			ProxyChange:  defaultProxyChange,
			Uploader:     defaultUploader,
			Archiver:     defaultArchiver,
			Slideshow:    defaultSlideshow,
		},
		Convert: Convert{
			Factor: defaultConvertFactor,
		},
		Render: Render{
			Mode:       defaultRenderMode,
			EDLFile:    defaultEDLFile,
			OutputFile: defaultOutputFile,
		},
		Publish: Publish{
			Category: defaultPublishCategory,
			Privacy:  defaultPublishPrivacy,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			JobTimeout:         defaultJobTimeout,
			MinFreeSpaceGiB:    defaultMinFreeSpaceGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
