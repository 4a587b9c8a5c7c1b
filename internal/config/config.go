package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LLMConfig struct {
	APIKey       string `toml:"api_key"`
	Model        string `toml:"model"`
	UtilityModel string `toml:"utility_model"`
}

type ElevenLabsConfig struct {
	APIKey          string `toml:"api_key"`
	NarratorVoiceID string `toml:"narrator_voice_id"`
	ModelID         string `toml:"model_id"`
	OutputFormat    string `toml:"output_format"`
}

type GameConfig struct {
	Era            string `toml:"era"`
	Tone           string `toml:"tone"`
	MaxAccusations int    `toml:"max_accusations"`
	GenerateImages bool   `toml:"generate_images"`
	GenerateSpeech bool   `toml:"generate_speech"`
}

type StorageConfig struct {
	CompletionsDB string `toml:"completions_db"`
	MemoryDB      string `toml:"memory_db"`
	AudioDir      string `toml:"audio_dir"`
	ImageCacheDir string `toml:"image_cache_dir"`
}

type ImagesConfig struct {
	ServerCommand string   `toml:"server_command"`
	ServerArgs    []string `toml:"server_args"`
	MaxParallel   int      `toml:"max_parallel"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	LLM        LLMConfig        `toml:"llm"`
	ElevenLabs ElevenLabsConfig `toml:"elevenlabs"`
	Game       GameConfig       `toml:"game"`
	Storage    StorageConfig    `toml:"storage"`
	Images     ImagesConfig     `toml:"images"`
}

// Load reads the TOML config file and applies environment overrides.
// A missing file is not an error; env vars alone can configure a run.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse TOML config '%s': %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8090"},
		LLM: LLMConfig{
			Model:        "gpt-4o",
			UtilityModel: "gpt-4o-mini",
		},
		ElevenLabs: ElevenLabsConfig{
			NarratorVoiceID: "JBFqnCBsd6RMkjVDRZzb",
			ModelID:         "eleven_flash_v2_5",
			OutputFormat:    "mp3_44100_128",
		},
		Game: GameConfig{
			Era:            "1920s",
			Tone:           "classic",
			MaxAccusations: 3,
			GenerateImages: true,
			GenerateSpeech: true,
		},
		Storage: StorageConfig{
			CompletionsDB: "./completions.db",
			MemoryDB:      "./investigation.db",
			AudioDir:      "",
			ImageCacheDir: "",
		},
		Images: ImagesConfig{
			ServerCommand: "imageserver",
			MaxParallel:   4,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_UTILITY_MODEL"); v != "" {
		cfg.LLM.UtilityModel = v
	}
	if v := os.Getenv("ELEVENLABS_API_KEY"); v != "" {
		cfg.ElevenLabs.APIKey = v
	}
	if v := os.Getenv("NARRATOR_VOICE_ID"); v != "" {
		cfg.ElevenLabs.NarratorVoiceID = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("IMAGE_SERVER_COMMAND"); v != "" {
		cfg.Images.ServerCommand = v
	}
	if os.Getenv("DISABLE_IMAGES") == "1" {
		cfg.Game.GenerateImages = false
	}
	if os.Getenv("DISABLE_SPEECH") == "1" {
		cfg.Game.GenerateSpeech = false
	}
}
