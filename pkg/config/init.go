// Package config holds the tool configuration: defaults, an optional
// edge2html.json overlay, and environment overrides (a .env file is picked
// up first). This is tool configuration; the render context handed to
// templates lives in the source tree's data.json and is not read here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var Config = new(Configuration)

var DefaultConfiguration = &Configuration{
	SrcDir:            "src",
	DestDir:           "dist",
	TemplateExt:       ".edge",
	DataFile:          "data.json",
	DebounceMs:        200,
	FetchTimeoutSecs:  10,
	RenderConcurrency: 8,
	ServeConfig: ServeConfiguration{
		Redirect404: "",
		Port:        8100,
	},
}

type Configuration struct {
	SrcDir            string `json:"source_directory,omitempty"`
	DestDir           string `json:"dest_directory,omitempty"`
	TemplateExt       string `json:"template_ext,omitempty"`
	DataFile          string `json:"data_file,omitempty"`
	DebounceMs        int    `json:"debounce_ms,omitempty"`
	FetchTimeoutSecs  int    `json:"fetch_timeout_secs,omitempty"`
	RenderConcurrency int    `json:"render_concurrency,omitempty"`
	LogLevel          string `json:"log_level,omitempty"`

	ServeConfig ServeConfiguration `json:"serve_config,omitempty"`
}

type ServeConfiguration struct {
	Redirect404 string `json:"redirect_404"`
	Port        int    `json:"port"`
}

// Init resets Config to the defaults, overlays the configuration file when
// one exists, then applies environment overrides. A named file that is
// missing is not an error; a present file that fails to parse is.
func Init(configpath string) error {
	if configpath == "" {
		configpath = "edge2html.json"
	}

	{
		*Config = Configuration{}
		jsm, _ := json.Marshal(DefaultConfiguration)
		json.Unmarshal(jsm, Config)
	}

	godotenv.Load()

	_, err := os.Stat(configpath)
	if !os.IsNotExist(err) {
		if err != nil {
			return fmt.Errorf("could not access configuration file %s: %v", configpath, err)
		}

		f, err := os.Open(configpath)
		if err != nil {
			return err
		}
		defer f.Close()

		err = json.NewDecoder(f).Decode(Config)
		if err != nil {
			return err
		}
	}

	return applyEnv()
}

func applyEnv() error {
	if v := os.Getenv("EDGE2HTML_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EDGE2HTML_PORT %q: %v", v, err)
		}
		Config.ServeConfig.Port = port
	}
	if v := os.Getenv("EDGE2HTML_LOG"); v != "" {
		Config.LogLevel = v
	}
	return nil
}
