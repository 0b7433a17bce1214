package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/HugoSmits86/nativewebp"
	"github.com/docker/go-units"
	"github.com/gogpu/gputypes"

	"github.com/meigma/texcache"
	"github.com/meigma/texcache/cache/disk"
	"github.com/meigma/texcache/container"
	"github.com/meigma/texcache/gpu"
)

func parseBytes(value string) (int64, error) {
	n, err := units.RAMInBytes(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	return n, nil
}

func openDisk(dir string, maxBytes int64) (*disk.Cache, error) {
	var opts []disk.Option
	if maxBytes > 0 {
		opts = append(opts, disk.WithMaxBytes(maxBytes))
	}
	c, err := disk.New(dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("open content cache: %w", err)
	}
	return c, nil
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func runLoad(ctx context.Context, cfg config, args []string) error {
	if len(args) == 0 {
		return errors.New("load: no inputs")
	}
	usage, err := texcache.ParseUsage(cfg.usage)
	if err != nil {
		return err
	}
	if usage == texcache.UsageCustom {
		return errors.New("load: custom usage needs a loader")
	}

	logger := newLogger(cfg.verbose)
	opts, err := cacheOptions(cfg, logger)
	if err != nil {
		return err
	}
	tc, err := texcache.New(opts...)
	if err != nil {
		return err
	}
	defer tc.Close()

	resources := make([]*texcache.Resource, 0, len(args))
	for _, arg := range args {
		var topts []texcache.TextureOption
		if !strings.Contains(arg, "://") {
			data, err := os.ReadFile(arg)
			if err != nil {
				return err
			}
			topts = append(topts, texcache.WithContent(data))
		}
		r, err := tc.GetTexture(arg, usage, topts...)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		defer r.Release()
		resources = append(resources, r)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()
	waitErr := texcache.WaitAll(ctx, resources...)

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTATE\tHASH\tSIZE\tORIGINAL\tERROR")
	for _, r := range resources {
		w, h := r.Size()
		ow, oh := r.OriginalSize()
		errText := ""
		if err := r.Err(); err != nil {
			errText = err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d\t%dx%d\t%s\n",
			r.URL(), r.State(), shortHash(r.Hash()), w, h, ow, oh, errText)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if cfg.verbose {
		s := tc.Stats()
		fmt.Fprintf(os.Stderr, "decodes=%d memory=%d disk=%d mirror=%d failures=%d\n",
			s.Decodes, s.MemoryHits, s.DiskHits, s.MirrorHits, s.Failures)
	}
	return waitErr
}

func shortHash(h texcache.Hash) string {
	if h == "" {
		return "-"
	}
	enc := h.Encoded()
	if len(enc) > 12 {
		enc = enc[:12]
	}
	return enc
}

func loadContainer(path string) (*container.Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := container.Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func runInspect(args []string) error {
	if len(args) == 0 {
		return errors.New("inspect: no containers")
	}
	for _, path := range args {
		c, err := loadContainer(path)
		if err != nil {
			return err
		}
		desc := c.Descriptor()
		ow, oh := c.OriginalSize()
		fmt.Printf("%s\n", path)
		fmt.Printf("  version:  %d\n", c.Version())
		fmt.Printf("  hash:     %s\n", c.ContentHash())
		fmt.Printf("  source:   %s\n", c.Source())
		fmt.Printf("  usage:    %s\n", c.Usage())
		fmt.Printf("  format:   %v\n", desc.Format)
		fmt.Printf("  size:     %dx%dx%d\n", desc.Size.Width, desc.Size.Height, desc.Size.DepthOrArrayLayers)
		fmt.Printf("  original: %dx%d\n", ow, oh)
		if _, ok := c.Irradiance(); ok {
			fmt.Printf("  irradiance: yes\n")
		}
		fmt.Printf("  stored:   %s\n", units.BytesSize(float64(c.Size())))

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  LEVEL\tSIZE\tBYTES\tSTORED\tCOMPRESSION")
		for i, m := range c.Mips() {
			fmt.Fprintf(tw, "  %d\t%dx%d\t%d\t%d\t%s\n", i, m.Width, m.Height, m.Size, m.StoredSize, m.Compression)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "output WebP file")
	level := fs.Int("level", 0, "mip level")
	layer := fs.Int("layer", 0, "array layer (cube face)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *out == "" {
		return errors.New("export: usage: export -o out.webp <container>")
	}

	c, err := loadContainer(fs.Arg(0))
	if err != nil {
		return err
	}
	tex, err := c.Texture()
	if err != nil {
		return err
	}
	img, err := mipImage(tex, *level, *layer)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(f, img, nil); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// mipImage wraps one layer of a mip level as an image without copying.
func mipImage(tex *gpu.Texture, level, layer int) (image.Image, error) {
	if level < 0 || level >= tex.MipCount() {
		return nil, fmt.Errorf("mip level %d out of range [0, %d)", level, tex.MipCount())
	}
	if layer < 0 || layer >= tex.Layers() {
		return nil, fmt.Errorf("layer %d out of range [0, %d)", layer, tex.Layers())
	}
	m := tex.Mip(level)
	w, h := int(m.Width), int(m.Height)
	bpp := gpu.BytesPerTexel(tex.Format())
	layerBytes := w * h * bpp
	pix := m.Data[layer*layerBytes : (layer+1)*layerBytes]
	rect := image.Rect(0, 0, w, h)

	switch tex.Format() {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatRGBA8UnormSrgb:
		return &image.NRGBA{Pix: pix, Stride: w * 4, Rect: rect}, nil
	case gputypes.TextureFormatR8Unorm:
		return &image.Gray{Pix: pix, Stride: w, Rect: rect}, nil
	default:
		return nil, fmt.Errorf("cannot export format %v", tex.Format())
	}
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func runPrune(cfg config, args []string) error {
	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	target := fs.String("target", "0", "size to prune the cache down to (e.g. 256MiB)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.cacheDir == "" {
		return errors.New("prune: no cache directory")
	}
	targetBytes, err := parseBytes(*target)
	if err != nil {
		return err
	}

	c, err := openDisk(cfg.cacheDir, 0)
	if err != nil {
		return err
	}
	before := c.SizeBytes()
	freed, err := c.Prune(targetBytes)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s -> %s (freed %s)\n", c.Dir(),
		units.BytesSize(float64(before)), units.BytesSize(float64(c.SizeBytes())), units.BytesSize(float64(freed)))
	return nil
}
