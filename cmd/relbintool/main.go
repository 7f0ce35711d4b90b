// Command relbintool is a batch inspection and verification tool for asset
// containers.
//
// Usage:
//
//	relbintool inspect file...   identify each file and print a summary
//	relbintool verify file...    decode, re-encode, and compare byte-for-byte
//	relbintool unwrap file...    unwrap ZCMP envelopes next to the input
//
// Failures are logged per file and processing continues; the exit code is
// non-zero if any file failed.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/arkheio/relbin"
	"github.com/arkheio/relbin/container"
	"github.com/arkheio/relbin/schema"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("relbintool: ")

	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(2)
	}

	var run func(path string, data []byte) error
	switch args[0] {
	case "inspect":
		run = inspect
	case "verify":
		run = verify
	case "unwrap":
		run = unwrap
	default:
		log.Printf("unknown command %q", args[0])
		usage()
		os.Exit(2)
	}

	failed := 0
	for _, path := range args[1:] {
		data, err := os.ReadFile(path)
		if err == nil {
			err = run(path, data)
		}
		if err != nil {
			log.Printf("%s: %v", path, err)
			failed++
		}
	}

	if failed > 0 {
		log.Printf("%d of %d files failed", failed, len(args)-1)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: relbintool {inspect|verify|unwrap} file...\n")
	flag.PrintDefaults()
}

func inspect(path string, data []byte) error {
	kind, err := relbin.Detect(data)
	if err != nil {
		return err
	}

	switch kind {
	case relbin.KindModel:
		m, err := relbin.DecodeModel(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: model %q: %d meshes, %d materials, %d indices, skeleton=%v\n",
			path, m.Name, len(m.Meshes), len(m.Materials), len(m.Indices), m.Skeleton != nil)
	case relbin.KindSkeleton:
		s, err := relbin.DecodeSkeleton(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: skeleton: %d bones\n", path, len(s.Bones))
	case relbin.KindAnimation:
		a, err := relbin.DecodeAnimation(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: animation %q: %d tracks, %.0f ticks at %.0f/s\n",
			path, a.Name, len(a.Tracks), a.Duration, a.TickRate)
	case relbin.KindTexture:
		t, err := relbin.DecodeTexture(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: texture %q: %dx%dx%d %s, %d mips, %d layers, tiled=%v\n",
			path, t.Name, t.Width, t.Height, t.Depth, t.Format, t.Mips, t.Layers, t.Tiled())
	case relbin.KindShader:
		s, err := relbin.DecodeShader(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: shader %q: %d stages\n", path, s.Name, len(s.Stages))
	case relbin.KindScene:
		s, err := relbin.DecodeScene(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: scene: %d nodes\n", path, countNodes(s.Root))
	case relbin.KindArchive:
		a, err := relbin.DecodeArchive(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: archive: %d entries\n", path, len(a.Entries))
		for _, e := range a.Entries {
			fmt.Printf("  %s %-40s %8d bytes\n", e.Tag, e.Name, len(e.Data))
		}
	case relbin.KindEnvelope:
		env, err := relbin.OpenEnvelope(data)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s envelope %q: %d -> %d bytes\n",
			path, env.Codec, env.Tag, len(data)-container.EnvelopeHeaderSize, len(env.Payload))
	default:
		return fmt.Errorf("unhandled kind %s", kind)
	}

	return nil
}

func countNodes(n *schema.Node) int {
	if n == nil {
		return 0
	}

	total := 1
	for i := range n.Children {
		total += countNodes(&n.Children[i])
	}

	return total
}

// verify decodes the container and re-encodes it, requiring byte identity.
func verify(path string, data []byte) error {
	kind, err := relbin.Detect(data)
	if err != nil {
		return err
	}

	var reencoded []byte
	switch kind {
	case relbin.KindModel:
		m, err := relbin.DecodeModel(data)
		if err != nil {
			return err
		}
		reencoded, err = m.Encode(relbin.DefaultEngine())
		if err != nil {
			return err
		}
	case relbin.KindSkeleton:
		s, err := relbin.DecodeSkeleton(data)
		if err != nil {
			return err
		}
		reencoded, err = s.Encode(relbin.DefaultEngine())
		if err != nil {
			return err
		}
	case relbin.KindAnimation:
		a, err := relbin.DecodeAnimation(data)
		if err != nil {
			return err
		}
		reencoded, err = a.Encode(relbin.DefaultEngine())
		if err != nil {
			return err
		}
	case relbin.KindTexture:
		t, err := relbin.DecodeTexture(data)
		if err != nil {
			return err
		}
		reencoded, err = t.Encode(relbin.DefaultEngine())
		if err != nil {
			return err
		}
	case relbin.KindShader:
		s, err := relbin.DecodeShader(data)
		if err != nil {
			return err
		}
		reencoded, err = s.Encode(relbin.DefaultEngine())
		if err != nil {
			return err
		}
	case relbin.KindScene:
		s, err := relbin.DecodeScene(data)
		if err != nil {
			return err
		}
		reencoded, err = s.Encode(relbin.DefaultEngine())
		if err != nil {
			return err
		}
	case relbin.KindArchive:
		a, err := relbin.DecodeArchive(data)
		if err != nil {
			return err
		}
		reencoded, err = a.Encode(relbin.DefaultEngine())
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("cannot verify kind %s", kind)
	}

	if !bytes.Equal(data, reencoded) {
		return fmt.Errorf("round-trip mismatch: %d bytes in, %d bytes out", len(data), len(reencoded))
	}
	fmt.Printf("%s: ok (%d bytes)\n", path, len(data))

	return nil
}

// unwrap writes an envelope's inflated payload next to the input file.
func unwrap(path string, data []byte) error {
	env, err := relbin.OpenEnvelope(data)
	if err != nil {
		return err
	}

	out := strings.TrimSuffix(path, ".zcmp") + ".raw"
	if err := os.WriteFile(out, env.Payload, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s: %q -> %s (%d bytes)\n", path, env.Tag, out, len(env.Payload))

	return nil
}
