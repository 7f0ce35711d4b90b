package schema

import (
	"fmt"

	"github.com/arkheio/relbin/container"
	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/relo"
	"github.com/arkheio/relbin/stream"
)

// SceneMagic tags scene graph containers.
var SceneMagic = container.MagicOf("SCNE")

// SceneVersion is the only accepted scene layout version.
const SceneVersion = 1

// MaxSceneDepth bounds node nesting. A legitimate scene never approaches
// this; hitting it means a corrupt or malicious child offset cycle.
const MaxSceneDepth = 64

var (
	scneNameRule = format.FieldRule{
		Name:        "scene.node.name",
		Layout:      format.LayoutOffsetOnly,
		Width:       format.Width32,
		EmptyAsNull: true,
	}
	scneRootRule = format.FieldRule{
		Name:        "scene.root",
		Layout:      format.LayoutOffsetOnly,
		Width:       format.Width32,
		Align:       8,
		EmptyAsNull: true,
	}
	scneChildrenRule = format.FieldRule{
		Name:        "scene.node.children",
		Layout:      format.LayoutOffsetCount,
		Width:       format.Width32,
		Align:       8,
		EmptyAsNull: true,
	}
)

// Node is one scene graph node: a named local transform with child nodes
// stored behind an offset/count reference at arbitrary depth.
type Node struct {
	Name        string
	Translation [3]float32
	Rotation    [4]float32
	Scale       [3]float32
	Children    []Node
}

// Scene is a decoded SCNE container. Root is nil for an empty scene.
type Scene struct {
	Root *Node
}

// DecodeScene parses a SCNE blob.
func DecodeScene(data []byte, engine endian.EndianEngine) (*Scene, error) {
	r := stream.NewReader(data, engine)
	base := r.Tell()

	if _, err := container.ReadHeader(r, SceneMagic, SceneVersion); err != nil {
		return nil, err
	}

	ref, err := relo.ReadRef(r, scneRootRule)
	if err != nil {
		return nil, err
	}

	s := &Scene{}
	err = relo.Resolve(r, base, ref, scneRootRule, func(r *stream.Reader) error {
		root, err := decodeNode(r, base, 0)
		if err != nil {
			return err
		}
		s.Root = &root

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

func decodeNode(r *stream.Reader, base int64, depth int) (Node, error) {
	var n Node
	if depth >= MaxSceneDepth {
		return n, fmt.Errorf("%w: node depth %d", errs.ErrNestingTooDeep, depth)
	}

	var err error
	if n.Name, err = relo.ReadResolveString(r, base, scneNameRule); err != nil {
		return n, err
	}
	if err = readFloat3(r, &n.Translation); err != nil {
		return n, err
	}
	if err = readFloat4(r, &n.Rotation); err != nil {
		return n, err
	}
	if err = readFloat3(r, &n.Scale); err != nil {
		return n, err
	}

	n.Children, err = relo.ReadResolveSlice(r, base, scneChildrenRule, func(r *stream.Reader) (Node, error) {
		return decodeNode(r, base, depth+1)
	})

	return n, err
}

// Encode serializes the scene. Child lists are deferred onto the shared
// writer as their parents are emitted, so sibling blocks land in
// breadth-first order; the name pool flushes last.
func (s *Scene) Encode(engine endian.EndianEngine) ([]byte, error) {
	w := stream.NewWriter(engine)
	defer w.Release()

	base := w.Tell()
	if err := container.WriteHeader(w, container.Header{Magic: SceneMagic, Version: SceneVersion}); err != nil {
		return nil, err
	}

	dw := relo.NewWriter(w, base)
	names := relo.NewStringPool(format.OrderInsertion)

	var rootEmit relo.EmitFunc
	if s.Root != nil {
		rootEmit = func(w *stream.Writer) error {
			return encodeNode(w, dw, names, s.Root, 0)
		}
	}
	if err := dw.Defer(scneRootRule, 1, rootEmit); err != nil {
		return nil, err
	}

	if err := dw.Flush(); err != nil {
		return nil, err
	}
	if err := names.Flush(w, base, 1, 0x00); err != nil {
		return nil, err
	}

	return w.Detach(), nil
}

func encodeNode(w *stream.Writer, dw *relo.Writer, names *relo.StringPool, n *Node, depth int) error {
	if depth >= MaxSceneDepth {
		return fmt.Errorf("%w: node %q at depth %d", errs.ErrNestingTooDeep, n.Name, depth)
	}

	if err := names.Defer(w, scneNameRule, n.Name); err != nil {
		return err
	}
	if err := writeFloat3(w, n.Translation); err != nil {
		return err
	}
	if err := writeFloat4(w, n.Rotation); err != nil {
		return err
	}
	if err := writeFloat3(w, n.Scale); err != nil {
		return err
	}

	children := n.Children

	return dw.Defer(scneChildrenRule, uint64(len(children)), func(w *stream.Writer) error {
		for i := range children {
			if err := encodeNode(w, dw, names, &children[i], depth+1); err != nil {
				return err
			}
		}

		return nil
	})
}
