package cmd

import (
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
	"upload-ai/config"
	"upload-ai/constant"
	"upload-ai/pkg/transcoder"
	"upload-ai/pkg/uploader"
)

func clientContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	level := zerolog.InfoLevel
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
	return signal.NotifyContext(logger.WithContext(context.Background()), syscall.SIGINT, syscall.SIGTERM)
}

func newEngine(cfg *config.Config) *transcoder.Engine {
	return transcoder.NewEngine(transcoder.Options{
		FFmpegPath:     cfg.Transcoder.FFmpegPath,
		FFprobePath:    cfg.Transcoder.FFprobePath,
		AudioBitrate:   cfg.Transcoder.AudioBitrate,
		MaxConcurrency: cfg.Transcoder.MaxConcurrency,
	})
}

func progressPrinter(out *os.File) func(float64) {
	return func(f float64) {
		fmt.Fprintf(out, "\rconverting... %3.0f%%", f*100)
		if f >= 1 {
			fmt.Fprintln(out)
		}
	}
}

func upload(cfg *config.Config) *cobra.Command {
	var (
		prompt      string
		generate    string
		temperature float64
	)

	cmd := &cobra.Command{
		Use:   "upload <video>",
		Short: "convert a video to audio, upload it and generate its transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := clientContext(cfg)
			defer cancel()

			api := uploader.NewClient(cfg.Client.APIURL, cfg.Client.Timeout)
			var videoId string
			session := uploader.NewSession(newEngine(cfg), api,
				uploader.WithObserver(func(s uploader.Status) {
					zerolog.Ctx(ctx).Info().Str("status", string(s)).Msg(s.Label())
				}),
				uploader.WithProgress(progressPrinter(os.Stderr)),
				uploader.WithOnUploaded(func(id string) { videoId = id }),
			)
			defer session.Close()

			session.Select(args[0])
			if err := session.Submit(ctx, prompt); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), videoId)

			if generate == "" {
				return nil
			}
			var temp *float64
			if cmd.Flags().Changed("temperature") {
				temp = &temperature
			}
			if err := api.Generate(ctx, videoId, generate, temp, cmd.OutOrStdout()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "comma separated keywords spoken in the video")
	cmd.Flags().StringVarP(&generate, "generate", "g", "", "completion prompt template, {transcription} is replaced by the transcription")
	cmd.Flags().Float64VarP(&temperature, "temperature", "t", 0.5, "completion temperature between 0 and 1")
	return cmd
}

func convert(cfg *config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "convert <video>",
		Short: "extract the audio track of a video as a compact mp3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := clientContext(cfg)
			defer cancel()

			res, err := newEngine(cfg).Convert(ctx, args[0], progressPrinter(os.Stderr))
			if err != nil {
				return err
			}
			defer res.Cleanup()

			if output == "" {
				output = "output.mp3"
			}
			if err := moveFile(res.AudioPath, output); err != nil {
				return err
			}
			zerolog.Ctx(ctx).Info().Str("output", output).Int64("size", res.Size).Dur("duration", res.Duration).Msg("audio written")
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "destination mp3 file")
	return cmd
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
