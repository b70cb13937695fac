package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MTL format errors.
var (
	ErrEmptyMTL        = errors.New("MTL defines no materials")
	ErrMTLOutsideBlock = errors.New("MTL statement before newmtl")
)

// MTLMaterial holds the reflectance coefficients of one named material.
type MTLMaterial struct {
	Name       string
	Ambient    [3]float32 // Ka
	Diffuse    [3]float32 // Kd
	Specular   [3]float32 // Ks
	Shininess  float32    // Ns
	Dissolve   float32    // d (1 = opaque)
	DiffuseMap string     // map_Kd
}

// ParseMTL parses an MTL material library. Materials are returned in file
// order. Unknown statements are ignored.
func ParseMTL(data []byte) ([]MTLMaterial, error) {
	var materials []MTLMaterial
	var cur *MTLMaterial

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		ident, args := fields[0], fields[1:]

		if ident == "newmtl" {
			materials = append(materials, MTLMaterial{
				Name:     strings.Join(args, " "),
				Dissolve: 1,
			})
			cur = &materials[len(materials)-1]
			continue
		}

		switch ident {
		case "Ka", "Kd", "Ks", "Ns", "d", "Tr", "map_Kd":
			if cur == nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, ErrMTLOutsideBlock)
			}
		default:
			continue
		}

		var err error
		switch ident {
		case "Ka":
			cur.Ambient, err = parseColor(args)
		case "Kd":
			cur.Diffuse, err = parseColor(args)
		case "Ks":
			cur.Specular, err = parseColor(args)
		case "Ns":
			cur.Shininess, err = parseScalar(args)
		case "d":
			cur.Dissolve, err = parseScalar(args)
		case "Tr":
			var tr float32
			tr, err = parseScalar(args)
			cur.Dissolve = 1 - tr
		case "map_Kd":
			if len(args) > 0 {
				// options precede the file name
				cur.DiffuseMap = args[len(args)-1]
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading MTL: %w", err)
	}
	if len(materials) == 0 {
		return nil, ErrEmptyMTL
	}
	return materials, nil
}

// parseColor reads an rgb triple. A single value is replicated, as the
// format allows.
func parseColor(args []string) ([3]float32, error) {
	if len(args) == 1 {
		v, err := parseScalar(args)
		return [3]float32{v, v, v}, err
	}
	v, err := parseFloats(args, 3)
	if err != nil {
		return [3]float32{}, err
	}
	return [3]float32{v[0], v[1], v[2]}, nil
}

func parseScalar(args []string) (float32, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: missing value", ErrInvalidOBJLine)
	}
	f, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOBJLine, err)
	}
	return float32(f), nil
}
