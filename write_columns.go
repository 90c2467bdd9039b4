package shower

import (
	"errors"
	"reflect"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	"github.com/samber/lo"
	stgpsr "github.com/yuin/stagparser"
)

// sliceOffsets computes the per-row byte offset into the flattened data
// buffer of a variable-length column, the layout TileDB's var-length
// attributes expect.
func sliceOffsets[T any](s [][]T, byteSize uint64) []uint64 {
	offsets := make([]uint64, len(s))
	offset := uint64(0)
	for i := range s {
		offsets[i] = offset
		offset += uint64(len(s[i])) * byteSize
	}
	return offsets
}

// setColumnBuffers attaches one TileDB data buffer per non-dimension,
// exported field of T, built by pulling that field out of every row via
// reflection. Generalized with Go generics instead of a `switch
// stype.Name()` over concrete row structs.
func setColumnBuffers[T any](query *tiledb.Query, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	var zero T
	tdbDefs, _ := stgpsr.ParseStruct(&zero, "tiledb")
	rt := reflect.TypeOf(zero)

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		defs := make(map[string]stgpsr.Definition)
		for _, d := range tdbDefs[field.Name] {
			defs[d.Name()] = d
		}
		ftypeDef, ok := defs["ftype"]
		if !ok {
			continue
		}
		ftype, _ := ftypeDef.Attribute("ftype")
		if ftype == "dim" {
			continue
		}

		switch field.Type.Kind() {
		case reflect.Int64:
			col := make([]int64, len(rows))
			for r, row := range rows {
				col[r] = reflect.ValueOf(row).Field(i).Int()
			}
			if _, err := query.SetDataBuffer(field.Name, col); err != nil {
				return errors.Join(ErrWriteArrayTdb, err)
			}
		case reflect.Float64:
			col := make([]float64, len(rows))
			for r, row := range rows {
				col[r] = reflect.ValueOf(row).Field(i).Float()
			}
			if _, err := query.SetDataBuffer(field.Name, col); err != nil {
				return errors.Join(ErrWriteArrayTdb, err)
			}
		case reflect.Slice:
			if field.Type.Elem().Kind() != reflect.Float64 {
				return ErrDims
			}
			if _, ok := defs["var"]; !ok {
				return ErrDims
			}
			slc := make([][]float64, len(rows))
			for r, row := range rows {
				slc[r] = reflect.ValueOf(row).Field(i).Interface().([]float64)
			}
			flat := lo.Flatten(slc)
			offsets := sliceOffsets(slc, 8)
			if _, err := query.SetOffsetsBuffer(field.Name, offsets); err != nil {
				return errors.Join(ErrWriteArrayTdb, err)
			}
			if _, err := query.SetDataBuffer(field.Name, flat); err != nil {
				return errors.Join(ErrWriteArrayTdb, err)
			}
		default:
			return ErrDtype
		}
	}

	return nil
}
