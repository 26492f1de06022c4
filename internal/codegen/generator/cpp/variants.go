package cpp

import "fmt"

// Variant is one matrix library flavour of the C++ wrapper. All variants share
// the classified fields and only differ in how arrays are typed and built.
type Variant struct {
	// Name is both the namespace suffix and the directory below src/aspn23.
	Name     string
	Includes []string

	Vector func(elem string) string
	Matrix func(elem string) string

	// ToVector and ToMatrix return the statement building the return value
	// of a getter from a C pointer.
	ToVector func(ptr, n, elem string) string
	ToMatrix func(ptr, rows, cols, elem string) string

	Rows func(v string) string
	Cols func(v string) string
}

// Namespace is the C++ namespace of the variant, e.g. aspn23_eigen.
func (v Variant) Namespace() string { return Dir + "_" + v.Name }

func xtensorVariant(name, container string, includes ...string) Variant {
	typ := func(elem string) string { return fmt.Sprintf("%s<%s>", container, elem) }
	return Variant{
		Name:     name,
		Includes: includes,
		Vector:   typ,
		Matrix:   typ,
		ToVector: func(ptr, n, _ string) string {
			return fmt.Sprintf("std::vector<std::size_t> shape = {static_cast<std::size_t>(%[2]s)};\nreturn xt::adapt(%[1]s, %[2]s, xt::no_ownership(), shape);", ptr, n)
		},
		ToMatrix: func(ptr, rows, cols, _ string) string {
			return fmt.Sprintf("std::vector<std::size_t> shape = {static_cast<std::size_t>(%[2]s), static_cast<std::size_t>(%[3]s)};\nreturn xt::adapt(%[1]s, %[2]s * %[3]s, xt::no_ownership(), shape);", ptr, rows, cols)
		},
		Rows: func(v string) string { return fmt.Sprintf("(%[1]s.dimension() == 2 ? %[1]s.shape()[0] : 0)", v) },
		Cols: func(v string) string { return fmt.Sprintf("(%[1]s.dimension() == 2 ? %[1]s.shape()[1] : 0)", v) },
	}
}

var eigenVariant = Variant{
	Name:     "eigen",
	Includes: []string{"<Eigen/Dense>"},
	Vector:   func(elem string) string { return fmt.Sprintf("Eigen::Matrix<%s, Eigen::Dynamic, 1>", elem) },
	Matrix: func(elem string) string {
		return fmt.Sprintf("Eigen::Matrix<%s, Eigen::Dynamic, Eigen::Dynamic, Eigen::RowMajor>", elem)
	},
	ToVector: func(ptr, n, elem string) string {
		return fmt.Sprintf("return Eigen::Map<Eigen::Matrix<%s, Eigen::Dynamic, 1>>(%s, %s);", elem, ptr, n)
	},
	ToMatrix: func(ptr, rows, cols, elem string) string {
		return fmt.Sprintf("return Eigen::Map<Eigen::Matrix<%s, Eigen::Dynamic, Eigen::Dynamic, Eigen::RowMajor>>(%s, %s, %s);", elem, ptr, rows, cols)
	},
	Rows: func(v string) string { return v + ".rows()" },
	Cols: func(v string) string { return v + ".cols()" },
}

// stlVariant stores matrices flattened row major, so only square variable
// matrices can recover their dimensions.
var stlVariant = Variant{
	Name:     "stl",
	Includes: []string{"<cmath>", "<vector>"},
	Vector:   func(elem string) string { return fmt.Sprintf("std::vector<%s>", elem) },
	Matrix:   func(elem string) string { return fmt.Sprintf("std::vector<%s>", elem) },
	ToVector: func(ptr, n, _ string) string {
		return fmt.Sprintf("return {%[1]s, %[1]s + %[2]s};", ptr, n)
	},
	ToMatrix: func(ptr, rows, cols, _ string) string {
		return fmt.Sprintf("return {%[1]s, %[1]s + %[2]s * %[3]s};", ptr, rows, cols)
	},
	Rows: func(v string) string { return fmt.Sprintf("static_cast<std::size_t>(std::sqrt(%s.size()))", v) },
	Cols: func(v string) string { return fmt.Sprintf("static_cast<std::size_t>(std::sqrt(%s.size()))", v) },
}

// XtensorPy is the variant that also gets pybind11 bindings.
const XtensorPy = "xtensor_py"

// Variants lists every flavour in generation order.
var Variants = []Variant{
	xtensorVariant("xtensor", "xt::xarray", "<xtensor/containers/xarray.hpp>", "<xtensor/containers/xadapt.hpp>"),
	xtensorVariant(XtensorPy, "xt::pyarray", "<xtensor-python/pyarray.hpp>", "<xtensor/containers/xadapt.hpp>"),
	eigenVariant,
	stlVariant,
}
