package config

import (
	"errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	App           App           `yaml:"app"`
	Server        Server        `yaml:"server"`
	Database      Database      `yaml:"database"`
	Storage       Storage       `yaml:"storage"`
	MinIO         MinIO         `yaml:"minio"`
	Queue         *RabbitMQ     `yaml:"rabbitmq"`
	OpenAI        OpenAI        `yaml:"openai"`
	Transcription Transcription `yaml:"transcription"`
	Completion    Completion    `yaml:"completion"`
	Transcoder    Transcoder    `yaml:"transcoder"`
	Client        Client        `yaml:"client"`
}

type App struct {
	Environment string `yaml:"environment"`
	Host        string `yaml:"host"`
	Protocol    string `yaml:"protocol"`
}

type Server struct {
	HttpPort       string   `yaml:"http_port"`
	Workers        int      `yaml:"workers"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	CORSOrigins    []string `yaml:"cors_origins"`
}

type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Storage struct {
	Driver    string `yaml:"driver"`
	LocalPath string `yaml:"local_path"`
}

type MinIO struct {
	URL             string `yaml:"url"`
	AccessID        string `yaml:"access_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	Secure          bool   `yaml:"secure"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

// Enabled reports whether a broker was configured at all.
func (r *RabbitMQ) Enabled() bool {
	return r != nil && r.Host != ""
}

type OpenAI struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type Transcription struct {
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
}

type Completion struct {
	Model string `yaml:"model"`
}

type Transcoder struct {
	FFmpegPath     string `yaml:"ffmpeg_path"`
	FFprobePath    string `yaml:"ffprobe_path"`
	AudioBitrate   string `yaml:"audio_bitrate"`
	MaxConcurrency int64  `yaml:"max_concurrency"`
}

type Client struct {
	APIURL  string        `yaml:"api_url"`
	Timeout time.Duration `yaml:"timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "develop")
	v.SetDefault("server.port", "3333")
	v.SetDefault("server.workers", 2)
	v.SetDefault("server.max_upload_bytes", 25*1024*1024)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_path", "tmp")
	v.SetDefault("minio.bucket", "upload-ai")
	v.SetDefault("rabbitmq_kind", "direct")
	v.SetDefault("rabbitmq_port", 5672)
	v.SetDefault("transcription.model", "whisper-1")
	v.SetDefault("transcription.language", "pt")
	v.SetDefault("completion.model", "gpt-3.5-turbo-16k")
	v.SetDefault("transcoder.ffmpeg_path", "ffmpeg")
	v.SetDefault("transcoder.ffprobe_path", "ffprobe")
	v.SetDefault("transcoder.audio_bitrate", "20k")
	v.SetDefault("transcoder.max_concurrency", 1)
	v.SetDefault("client.api_url", "http://localhost:3333")
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.BindEnv("openai.api_key", "OPENAI_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	err := v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		App: App{
			Environment: v.GetString("app.environment"),
			Host:        v.GetString("app.host"),
			Protocol:    v.GetString("app.protocol"),
		},
		Server: Server{
			HttpPort:       v.GetString("server.port"),
			Workers:        v.GetInt("server.workers"),
			MaxUploadBytes: v.GetInt64("server.max_upload_bytes"),
			CORSOrigins:    v.GetStringSlice("server.cors_origins"),
		},
		Database: Database{
			Driver: v.GetString("database.driver"),
			DSN:    v.GetString("database.dsn"),
		},
		Storage: Storage{
			Driver:    v.GetString("storage.driver"),
			LocalPath: v.GetString("storage.local_path"),
		},
		MinIO: MinIO{
			URL:             v.GetString("minio.url"),
			AccessID:        v.GetString("minio.access_id"),
			SecretAccessKey: v.GetString("minio.secret_access_key"),
			Bucket:          v.GetString("minio.bucket"),
			Secure:          v.GetBool("minio.secure"),
		},
		Queue: &RabbitMQ{
			Host:         v.GetString("rabbitmq_host"),
			Port:         v.GetInt("rabbitmq_port"),
			User:         v.GetString("rabbitmq_user"),
			Pass:         v.GetString("rabbitmq_pass"),
			ExchangeName: v.GetString("rabbitmq_exchange"),
			Kind:         v.GetString("rabbitmq_kind"),
		},
		OpenAI: OpenAI{
			APIKey:  v.GetString("openai.api_key"),
			BaseURL: v.GetString("openai.base_url"),
		},
		Transcription: Transcription{
			Model:    v.GetString("transcription.model"),
			Language: v.GetString("transcription.language"),
		},
		Completion: Completion{
			Model: v.GetString("completion.model"),
		},
		Transcoder: Transcoder{
			FFmpegPath:     v.GetString("transcoder.ffmpeg_path"),
			FFprobePath:    v.GetString("transcoder.ffprobe_path"),
			AudioBitrate:   v.GetString("transcoder.audio_bitrate"),
			MaxConcurrency: v.GetInt64("transcoder.max_concurrency"),
		},
		Client: Client{
			APIURL:  v.GetString("client.api_url"),
			Timeout: v.GetDuration("client.timeout"),
		},
	}, nil
}
