package shower

import (
	"errors"
	"reflect"

	tiledb "github.com/TileDB-Inc/TileDB-Go"
	stgpsr "github.com/yuin/stagparser"
)

// schemaAttrs walks every exported field of t (a pointer to a tagged struct)
// and adds a corresponding TileDB attribute to schema, skipping fields tagged
// as dimensions. Tags follow the convention `tiledb:"dtype=...,
// ftype=attr|dim"` plus an optional `filters:"zstd(level=16)"` pipeline.
func schemaAttrs(t any, schema *tiledb.ArraySchema, ctx *tiledb.Context) error {
	values := reflect.ValueOf(t).Elem()
	types := values.Type()

	filtDefs, _ := stgpsr.ParseStruct(t, "filters")
	tdbDefs, _ := stgpsr.ParseStruct(t, "tiledb")

	hasVar := false
	for i := 0; i < values.NumField(); i++ {
		name := types.Field(i).Name

		fieldTdbDefs := make(map[string]stgpsr.Definition)
		for _, d := range tdbDefs[name] {
			fieldTdbDefs[d.Name()] = d
		}

		def, ok := fieldTdbDefs["ftype"]
		if !ok {
			continue // untagged field, not part of the persisted schema
		}
		ftype, _ := def.Attribute("ftype")
		if ftype == "dim" {
			continue
		}

		if _, ok := fieldTdbDefs["var"]; ok {
			hasVar = true
		}

		if err := CreateAttr(name, filtDefs[name], fieldTdbDefs, schema, ctx); err != nil {
			return err
		}
	}

	// variable-length attributes (e.g. the per-pixel Image/TrueImage slices)
	// need an offsets filter pipeline set at the schema level; one shared
	// zstd pipeline covers every var attribute on the array.
	if hasVar {
		offFilters, err := tiledb.NewFilterList(ctx)
		if err != nil {
			return errJoinAttr(err)
		}
		defer offFilters.Free()
		zstd, err := ZstdFilter(ctx, 16)
		if err != nil {
			return errJoinAttr(err)
		}
		defer zstd.Free()
		if err := offFilters.AddFilter(zstd); err != nil {
			return errJoinAttr(err)
		}
		if err := schema.SetOffsetsFilterList(offFilters); err != nil {
			return errJoinAttr(err)
		}
	}

	return nil
}

// CreateAttr builds one TileDB attribute from its tag-derived datatype and
// compression pipeline and adds it to schema.
func CreateAttr(
	fieldName string,
	filterDefs []stgpsr.Definition,
	tiledbDefs map[string]stgpsr.Definition,
	schema *tiledb.ArraySchema,
	ctx *tiledb.Context,
) error {
	def, ok := tiledbDefs["dtype"]
	if !ok {
		return ErrDtype
	}
	dtypeStr, _ := def.Attribute("dtype")

	var dtype tiledb.Datatype
	switch dtypeStr {
	case "int32":
		dtype = tiledb.TILEDB_INT32
	case "int64":
		dtype = tiledb.TILEDB_INT64
	case "float32":
		dtype = tiledb.TILEDB_FLOAT32
	case "float64":
		dtype = tiledb.TILEDB_FLOAT64
	case "uint8":
		dtype = tiledb.TILEDB_UINT8
	case "string":
		dtype = tiledb.TILEDB_STRING_UTF8
	default:
		return ErrDtype
	}

	filterList, err := tiledb.NewFilterList(ctx)
	if err != nil {
		return errJoinAttr(err)
	}
	defer filterList.Free()

	for _, filt := range filterDefs {
		switch filt.Name() {
		case "zstd":
			level := int32(16)
			if lvl, ok := filt.Attribute("level"); ok {
				level = int32(lvl.(int64))
			}
			f, err := ZstdFilter(ctx, level)
			if err != nil {
				return errJoinAttr(err)
			}
			defer f.Free()
			if err := filterList.AddFilter(f); err != nil {
				return errJoinAttr(err)
			}
		case "gzip":
			level := int32(6)
			if lvl, ok := filt.Attribute("level"); ok {
				level = int32(lvl.(int64))
			}
			f, err := GzipFilter(ctx, level)
			if err != nil {
				return errJoinAttr(err)
			}
			defer f.Free()
			if err := filterList.AddFilter(f); err != nil {
				return errJoinAttr(err)
			}
		}
	}

	attr, err := tiledb.NewAttribute(ctx, fieldName, dtype)
	if err != nil {
		return errJoinAttr(err)
	}
	defer attr.Free()

	if _, ok := tiledbDefs["var"]; ok {
		if err := attr.SetCellValNum(tiledb.TILEDB_VAR_NUM); err != nil {
			return errJoinAttr(err)
		}
	}

	if err := attr.SetFilterList(filterList); err != nil {
		return errJoinAttr(err)
	}

	if err := schema.AddAttributes(attr); err != nil {
		return errJoinAttr(err)
	}

	return nil
}

func errJoinAttr(err error) error {
	return errors.Join(ErrCreateAttributeTdb, err)
}
