package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dgallion1/bookkit/internal/config"
	"github.com/dgallion1/bookkit/internal/imagegen"
	"github.com/spf13/cobra"
)

type imageFlags struct {
	prompt  string
	output  string
	preset  string
	size    string
	width   int
	height  int
	scale   float64
	timeout time.Duration
	ak      string
	sk      string
}

func newImageCmd(a *app) *cobra.Command {
	var f imageFlags
	cmd := &cobra.Command{
		Use:   "image",
		Short: "Generate an illustration with the Volcengine text-to-image API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImage(cmd.Context(), cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVarP(&f.prompt, "prompt", "p", "", "image description")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output image file")
	cmd.Flags().StringVar(&f.preset, "preset", "", "aspect ratio preset: 1:1, 4:3, 3:2, 16:9 or 21:9")
	cmd.Flags().StringVar(&f.size, "size", "2k", "preset size: 1k, 2k or 4k")
	cmd.Flags().IntVar(&f.width, "width", 0, "image width, used together with --height")
	cmd.Flags().IntVar(&f.height, "height", 0, "image height, used together with --width")
	cmd.Flags().Float64Var(&f.scale, "scale", imagegen.DefaultScale, "text prompt weight in [0, 1]")
	cmd.Flags().DurationVar(&f.timeout, "timeout", a.cfg.ImageTimeout, "maximum wait for the result")
	cmd.Flags().StringVar(&f.ak, "ak", "", "Volcengine access key")
	cmd.Flags().StringVar(&f.sk, "sk", "", "Volcengine secret key")
	_ = cmd.MarkFlagRequired("prompt")
	_ = cmd.MarkFlagRequired("output")
	cmd.MarkFlagsRequiredTogether("width", "height")
	cmd.MarkFlagsRequiredTogether("ak", "sk")
	return cmd
}

// imageRequest applies the preset, if any, on top of the explicit size.
func (a *app) imageRequest(f imageFlags) (imagegen.Request, error) {
	req := imagegen.Request{
		Prompt:      f.prompt,
		Width:       f.width,
		Height:      f.height,
		Scale:       f.scale,
		ForceSingle: true,
	}
	if f.preset != "" {
		s, ok, err := imagegen.ResolvePreset(f.preset, f.size)
		if err != nil {
			return req, err
		}
		if ok {
			req.Width, req.Height = s.Width, s.Height
		} else {
			a.log.Warn("preset has no such size, using explicit width and height", "preset", f.preset, "size", f.size)
		}
	}
	return req, req.Validate()
}

func (a *app) runImage(ctx context.Context, out io.Writer, f imageFlags) error {
	req, err := a.imageRequest(f)
	if err != nil {
		return fmt.Errorf("invalid image request: %w", err)
	}
	creds, err := a.cfg.ResolveCredentials(f.ak, f.sk, config.CredentialsFile())
	if err != nil {
		return err
	}

	client, err := imagegen.NewClient(imagegen.Options{
		AccessKey:    creds.AccessKey,
		SecretKey:    creds.SecretKey,
		Endpoint:     a.cfg.VolcengineEndpoint,
		PollInterval: a.cfg.ImagePollInterval,
		Logger:       a.log,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintln(out, titleStyle.Render("🎨 正在生成图片..."))
	if req.Width > 0 {
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("   尺寸: %dx%d", req.Width, req.Height)))
	}

	res, err := client.Generate(ctx, req, f.timeout)
	if err != nil {
		return err
	}
	if err := client.Save(ctx, res, f.output); err != nil {
		return err
	}
	fmt.Fprintln(out, successStyle.Render("✅ 图片已保存: "+f.output))
	return nil
}
