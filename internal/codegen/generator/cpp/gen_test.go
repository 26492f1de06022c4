package cpp_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/classify"
	"github.com/aspn-firehose/firehose/internal/codegen/generator/cpp"
	"github.com/aspn-firehose/firehose/internal/codegen/schema"
	"github.com/aspn-firehose/firehose/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func read(t *testing.T, path ...string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(path...))
	require.NoError(t, err)
	return string(data)
}

func corpus() []*schema.Schema {
	schemas := []*schema.Schema{
		{
			Name: "type_header",
			Fields: []schema.Field{
				{Name: "vendor_id", Type: strPtr("uint32")},
				{Name: "device_id", Type: strPtr("uint64")},
			},
		},
		{Name: "type_timestamp", Fields: []schema.Field{{Name: "elapsed_nsec", Type: strPtr("int64")}}},
		{Name: "type_satnav_obs", Fields: []schema.Field{{Name: "prn", Type: strPtr("uint16")}}},
		{
			Name:        "measurement_satnav",
			Description: strPtr("Satellite navigation measurement."),
			Fields: []schema.Field{
				{Name: "header", Type: strPtr("type_header")},
				{Name: "time_of_validity", Type: strPtr("type_timestamp")},
				{Name: "num_obs", Type: strPtr("uint8")},
				{Name: "obs", Type: strPtr("type_satnav_obs[num_obs]")},
				{Name: "num_states", Type: strPtr("uint8")},
				{Name: "bias", Type: strPtr("float64[num_states]")},
				{Name: "covariance", Type: strPtr("float64[num_states,num_states]")},
				{Name: "accel", Type: strPtr("float64[3]")},
				{Name: "p", Type: strPtr("float64[3,3]")},
				{Name: "label", Type: strPtr("string")},
				{Name: "mode", Enum: schema.EnumValues{{Value: "ON"}, {Value: "OFF"}}},
			},
		},
	}
	schema.InjectMessageType(schemas)
	return schemas
}

func generate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	b := cpp.New(log.Discard())
	require.NoError(t, b.SetOutputRootFolder(root))
	require.NoError(t, classify.Convert(b, corpus(), log.Discard()))
	return root
}

func TestVariantsGenerated(t *testing.T) {
	root := generate(t)
	for _, v := range cpp.Variants {
		dir := filepath.Join(root, "src", "aspn23", v.Name)
		for _, f := range []string{"TypeHeader", "TypeTimestamp", "TypeSatnavObs", "MeasurementSatnav", "aspn_" + v.Name} {
			assert.FileExists(t, filepath.Join(dir, f+".hpp"))
			assert.FileExists(t, filepath.Join(dir, f+".cpp"))
		}
	}
	assert.FileExists(t, filepath.Join(root, "src", "aspn23", cpp.XtensorPy, "xtensor_bindings.cpp"))
	assert.NoFileExists(t, filepath.Join(root, "src", "aspn23", "eigen", "xtensor_bindings.cpp"))

	meson := read(t, root, "meson.build")
	assert.Contains(t, meson, "    'src/aspn23/eigen/MeasurementSatnav.cpp',\n")
	assert.Contains(t, meson, "    'src/aspn23/stl/aspn_stl.cpp',\n")
	assert.Contains(t, meson, "if not get_option('aspn-cpp-xtensor-py').disabled()\n")
	assert.Contains(t, meson, "python.extension_module('aspn23_xtensor',")
}

func TestClassHeader(t *testing.T) {
	root := generate(t)
	header := read(t, root, "src", "aspn23", "eigen", "MeasurementSatnav.hpp")

	assert.Contains(t, header, "#include <aspn23/MeasurementSatnav.h>\n")
	assert.Contains(t, header, "#include <Eigen/Dense>\n")
	assert.Contains(t, header, "#include \"TypeHeader.hpp\"\n")
	assert.Contains(t, header, "#include \"TypeSatnavObs.hpp\"\n")
	assert.Contains(t, header, "namespace aspn23_eigen {\n")
	assert.Contains(t, header, "class MeasurementSatnav : public TypeHeader {\n")
	assert.Contains(t, header, "    MeasurementSatnav(Aspn23MeasurementSatnav* c_struct, bool take_ownership = true);\n")
	assert.Contains(t, header, "    MeasurementSatnav(TypeHeader header, TypeTimestamp time_of_validity, std::vector<TypeSatnavObs> obs, "+
		"Eigen::Matrix<double, Eigen::Dynamic, 1> bias, "+
		"Eigen::Matrix<double, Eigen::Dynamic, Eigen::Dynamic, Eigen::RowMajor> covariance, "+
		"Eigen::Matrix<double, Eigen::Dynamic, 1> accel, "+
		"Eigen::Matrix<double, Eigen::Dynamic, Eigen::Dynamic, Eigen::RowMajor> p, "+
		"const std::string& label, Aspn23MeasurementSatnavMode mode);\n")
	assert.Contains(t, header, "    uint32_t get_vendor_id() const override;\n    void set_vendor_id(uint32_t) override;\n")
	assert.Contains(t, header, "    Aspn23MessageType get_message_type() const override;\n")
	assert.Contains(t, header, "    uint8_t get_num_obs() const;\n")
	assert.NotContains(t, header, "set_num_obs")
	assert.Contains(t, header, "    std::string get_label() const;\n    void set_label(const std::string&);\n")

	base := read(t, root, "src", "aspn23", "stl", "TypeHeader.hpp")
	assert.Contains(t, base, "class TypeHeader {\n")
	assert.Contains(t, base, "    virtual ~TypeHeader();\n")
	assert.Contains(t, base, "    virtual uint32_t get_vendor_id() const;\n")
	assert.Contains(t, base, "    virtual void set_message_type(Aspn23MessageType);\n")

	ts := read(t, root, "src", "aspn23", "xtensor", "TypeTimestamp.hpp")
	assert.Contains(t, ts, "TypeTimestamp to_type_timestamp(double t = 0.);\n")
	assert.Contains(t, ts, "#include <xtensor/containers/xarray.hpp>\n")
}

func TestClassSource(t *testing.T) {
	root := generate(t)
	source := read(t, root, "src", "aspn23", "eigen", "MeasurementSatnav.cpp")

	assert.Contains(t, source, "    this->c_struct       = aspn23_measurement_satnav_new(header.get_aspn_c(), time_of_validity.get_aspn_c(), "+
		"static_cast<uint8_t>(obs.size()), obs_prep, static_cast<uint8_t>(bias.size()), bias.data(), covariance.data(), "+
		"accel.data(), reinterpret_cast<double(*)[3]>(p.data()), const_cast<char*>(label.c_str()), mode);\n")
	assert.Contains(t, source, "    delete[] obs_prep;\n")
	assert.Contains(t, source, "    if (static_cast<std::size_t>(accel.size()) != 3)\n        throw std::invalid_argument(\"accel must have 3 elements\");\n")
	assert.Contains(t, source, "    if (this->c_struct != nullptr) TypeHeader::reset_aspn_c(&this->c_struct->header, false);\n")
	assert.Contains(t, source, "    if (other.c_struct != nullptr) this->c_struct = aspn23_measurement_satnav_copy(other.c_struct);\n")
	assert.Contains(t, source, "    if (c_struct != nullptr && take_ownership) aspn23_measurement_satnav_free(c_struct);\n")
	assert.Contains(t, source, "uint32_t MeasurementSatnav::get_vendor_id() const {\n    nullptr_check();\n    return c_struct->header.vendor_id;\n}\n")

	assert.Contains(t, source, "TypeTimestamp MeasurementSatnav::get_time_of_validity() const {\n    nullptr_check();\n"+
		"    return TypeTimestamp(aspn23_type_timestamp_copy(&c_struct->time_of_validity));\n}\n")
	assert.Contains(t, source, "    if (c_struct->bias == nullptr) return {};\n"+
		"    return Eigen::Map<Eigen::Matrix<double, Eigen::Dynamic, 1>>(c_struct->bias, c_struct->num_states);\n")
	assert.Contains(t, source, "    return Eigen::Map<Eigen::Matrix<double, Eigen::Dynamic, Eigen::Dynamic, Eigen::RowMajor>>(c_struct->covariance, c_struct->num_states, c_struct->num_states);\n")
	assert.Contains(t, source, "    std::size_t rows = covariance.rows();\n    std::size_t cols = covariance.cols();\n")
	assert.Contains(t, source, "    c_struct->num_states = rows;\n}\n")
	assert.Contains(t, source, "        out.push_back(TypeSatnavObs(aspn23_type_satnav_obs_copy(&c_struct->obs[ii])));\n")
	assert.Contains(t, source, "    c_struct->num_obs = obs.size();\n")
	assert.Contains(t, source, "    c_struct->label = strdup(label.c_str());\n")

	stl := read(t, root, "src", "aspn23", "stl", "MeasurementSatnav.cpp")
	assert.Contains(t, stl, "    return {c_struct->bias, c_struct->bias + c_struct->num_states};\n")
	assert.Contains(t, stl, "static_cast<std::size_t>(std::sqrt(covariance.size()))")

	xt := read(t, root, "src", "aspn23", "xtensor", "MeasurementSatnav.cpp")
	assert.Contains(t, xt, "    return xt::adapt(&c_struct->accel[0], 3, xt::no_ownership(), shape);\n")
}

func TestRootAndBindings(t *testing.T) {
	root := generate(t)
	dir := filepath.Join(root, "src", "aspn23", cpp.XtensorPy)

	header := read(t, dir, "aspn_xtensor_py.hpp")
	assert.Contains(t, header, "#include <aspn23/xtensor_py/MeasurementSatnav.hpp>\n")
	assert.Contains(t, header, "namespace aspn_xtensor_py = aspn23_xtensor_py;\n")
	assert.Contains(t, header, "using AspnBase = TypeHeader;\n")
	assert.Contains(t, header, "TypeTimestamp get_time(std::shared_ptr<AspnBase> parent);\n")

	source := read(t, dir, "aspn_xtensor_py.cpp")
	assert.Contains(t, source, "    case ASPN_MEASUREMENT_SATNAV:\n        return std::dynamic_pointer_cast<MeasurementSatnav>(parent)->get_time_of_validity();\n")
	assert.Contains(t, source, "        return std::shared_ptr<MeasurementSatnav>(new MeasurementSatnav((Aspn23MeasurementSatnav*)parent, take_ownership), custom_deleter);\n")
	assert.Contains(t, source, "        return std::make_shared<MeasurementSatnav>(*std::dynamic_pointer_cast<MeasurementSatnav>(parent));\n")

	bindings := read(t, dir, "xtensor_bindings.cpp")
	assert.Contains(t, bindings, "using namespace aspn23_xtensor_py;\n")
	assert.Contains(t, bindings, "py::class_<MeasurementSatnav, TypeHeader, py::smart_holder>(m, \"MeasurementSatnav\")\n")
	assert.Contains(t, bindings, "        .def(\"get_num_obs\", &MeasurementSatnav::get_num_obs)\n        .def(\"get_obs\"")
	assert.NotContains(t, bindings, "set_num_obs")
	assert.Contains(t, bindings, "py::native_enum<Aspn23MessageType>(m, \"AspnMessageType\", \"enum.Enum\")")
	assert.Contains(t, bindings, "        .value(\"ASPN_MEASUREMENT_SATNAV\", ASPN_MEASUREMENT_SATNAV)\n")
	assert.Contains(t, bindings, "py::native_enum<Aspn23MeasurementSatnavMode>(m, \"AspnMeasurementSatnavMode\", \"enum.Enum\")")
	assert.Contains(t, bindings, "        .def(py::self + py::self)\n")
	assert.Contains(t, bindings, "    m.def(\"to_seconds\", &to_seconds, py::arg(\"time\"));\n")

	module := read(t, dir, "xtensor_bindings_module.cpp")
	assert.Contains(t, module, "PYBIND11_MODULE(aspn23_xtensor, m) { add_bindings(m); }")
}

func TestMixedMatrixRejected(t *testing.T) {
	b := cpp.New(log.Discard())
	require.NoError(t, b.SetOutputRootFolder(t.TempDir()))
	require.NoError(t, b.BeginStruct("measurement_x"))
	err := b.ProcessMatrixField("m", "double", backend.Fixed(3), backend.Ref("n"), "", false)
	assert.ErrorIs(t, err, backend.ErrMixedDimensions)
}
