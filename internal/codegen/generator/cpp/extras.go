package cpp

// extra is hand written code appended to one generated class.
type extra struct {
	includes []string
	decls    string
	defs     string
}

const timestampClass = "TypeTimestamp"

var extras = map[string]extra{
	timestampClass: {
		includes: []string{"<cmath>", "<cstdint>", "<cstdlib>", "<iomanip>", "<iostream>", "<string>"},
		decls: `
/**
 * Create a TypeTimestamp object from decimal seconds.
 *
 * @param t The decimal time in seconds since the epoch.
 */
TypeTimestamp to_type_timestamp(double t = 0.);

/**
 * Create a TypeTimestamp object from integer seconds and nanoseconds.
 */
TypeTimestamp to_type_timestamp(int64_t sec, int64_t nsec);

/**
 * @return A double-precision representation of \p time in seconds. Doubles are considerably less
 * precise than the native integer nanoseconds, so such conversions should be kept to a minimum.
 */
double to_seconds(const TypeTimestamp& time);

TypeTimestamp operator+(const TypeTimestamp& t1, const TypeTimestamp& t2);
TypeTimestamp operator+(const TypeTimestamp& t1, double t2_sec);
TypeTimestamp operator+(double t1_sec, const TypeTimestamp& t2);
TypeTimestamp operator-(const TypeTimestamp& t1, const TypeTimestamp& t2);
TypeTimestamp operator-(const TypeTimestamp& t1, double t2_sec);
TypeTimestamp operator-(double t1_sec, const TypeTimestamp& t2);

bool operator==(const TypeTimestamp& t1, const TypeTimestamp& t2);
bool operator!=(const TypeTimestamp& t1, const TypeTimestamp& t2);
bool operator<(const TypeTimestamp& t1, const TypeTimestamp& t2);
bool operator>(const TypeTimestamp& t1, const TypeTimestamp& t2);
bool operator<=(const TypeTimestamp& t1, const TypeTimestamp& t2);
bool operator>=(const TypeTimestamp& t1, const TypeTimestamp& t2);

/**
 * Write a human-readable representation of a TypeTimestamp, e.g. "12.000000001s".
 */
std::ostream& operator<<(std::ostream& output, const TypeTimestamp& time);
`,
		defs: `
constexpr int64_t NANO_PER_SEC = 1000000000;

TypeTimestamp to_type_timestamp(double time_in_sec) {
    return TypeTimestamp(static_cast<int64_t>(std::round(time_in_sec * NANO_PER_SEC)));
}

TypeTimestamp to_type_timestamp(int64_t sec, int64_t nsec) {
    return TypeTimestamp((sec * NANO_PER_SEC) + nsec);
}

double to_seconds(const TypeTimestamp& time) { return time.get_elapsed_nsec() * 1e-9; }

TypeTimestamp operator+(const TypeTimestamp& t1, const TypeTimestamp& t2) {
    return TypeTimestamp(t1.get_elapsed_nsec() + t2.get_elapsed_nsec());
}

TypeTimestamp operator+(const TypeTimestamp& t1, double t2_sec) { return t1 + to_type_timestamp(t2_sec); }

TypeTimestamp operator+(double t1_sec, const TypeTimestamp& t2) { return to_type_timestamp(t1_sec) + t2; }

TypeTimestamp operator-(const TypeTimestamp& t1, const TypeTimestamp& t2) {
    return TypeTimestamp(t1.get_elapsed_nsec() - t2.get_elapsed_nsec());
}

TypeTimestamp operator-(const TypeTimestamp& t1, double t2_sec) { return t1 - to_type_timestamp(t2_sec); }

TypeTimestamp operator-(double t1_sec, const TypeTimestamp& t2) { return to_type_timestamp(t1_sec) - t2; }

bool operator==(const TypeTimestamp& t1, const TypeTimestamp& t2) {
    return t1.get_elapsed_nsec() == t2.get_elapsed_nsec();
}

bool operator!=(const TypeTimestamp& t1, const TypeTimestamp& t2) { return !(t1 == t2); }

bool operator<(const TypeTimestamp& t1, const TypeTimestamp& t2) {
    return t1.get_elapsed_nsec() < t2.get_elapsed_nsec();
}

bool operator>(const TypeTimestamp& t1, const TypeTimestamp& t2) { return t2 < t1; }

bool operator<=(const TypeTimestamp& t1, const TypeTimestamp& t2) { return !(t2 < t1); }

bool operator>=(const TypeTimestamp& t1, const TypeTimestamp& t2) { return !(t1 < t2); }

std::ostream& operator<<(std::ostream& output, const TypeTimestamp& time) {
    int64_t nsec     = time.get_elapsed_nsec();
    int64_t sec      = nsec / NANO_PER_SEC;
    std::string sign = (nsec < 0) ? "-" : "";
    int64_t frac     = nsec - (sec * NANO_PER_SEC);
    return output << sign << std::llabs(sec) << '.' << std::setw(9) << std::setfill('0')
                  << std::llabs(frac) << "s";
}
`,
	},
}

const timestampBindings = `
        .def(py::self + py::self)
        .def(py::self + double())
        .def(double() + py::self)
        .def(py::self - py::self)
        .def(py::self - double())
        .def(double() - py::self)
        .def(py::self == py::self)
        .def(py::self != py::self)
        .def(py::self < py::self)
        .def(py::self > py::self)
        .def(py::self <= py::self)
        .def(py::self >= py::self)
        .def("__repr__", [](const TypeTimestamp& t) {
            std::ostringstream ss;
            ss << t;
            return ss.str();
        })`
