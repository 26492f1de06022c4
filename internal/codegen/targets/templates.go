package targets

import (
	"text/template"

	"github.com/aspn-firehose/firehose/internal/codegen/common"
)

const (
	cmakeMinVersion    = "3.8"
	fastcdrMinVersion  = "2.2"
	fastrtpsMinVersion = "2.14"
)

func parse(name, text string) *template.Template {
	funcs := common.TplFuncs()
	funcs["cmakeMin"] = func() string { return cmakeMinVersion }
	funcs["fastcdrMin"] = func() string { return fastcdrMinVersion }
	funcs["fastrtpsMin"] = func() string { return fastrtpsMinVersion }
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

var ddsRootMeson = parse("dds root meson", `# See if fastrtps is already installed on the system with cmake
fastrtps_dep = dependency('fastrtps',
    required: false,
    disabler: true,
    method: 'cmake'
)
fastcdr_dep = dependency('fastcdr',
    required: false,
    disabler: true,
    method: 'cmake'
)
if fastrtps_dep.found() and fastcdr_dep.found()
  # The version meson reports for a cmake found fastrtps is not the installed
  # one, so compare against the cmake variable instead.
  system_fastrtps_version = fastrtps_dep.get_variable(cmake: 'fastrtps_VERSION',
                                                      default_value: '')
  use_system_fastrtps = system_fastrtps_version.version_compare('>={{fastrtpsMin}}')
  if not use_system_fastrtps
    message('Installed fastrtps version needs to be >= {{fastrtpsMin}}')
    fastrtps_dep = disabler()
  endif
else
    fastrtps_dep = dependency('fastrtps',
        required: false,
        disabler: true,
    )
    fastcdr_dep = dependency('fastcdr',
        required: false,
        disabler: true,
    )
endif
# Fall back to the subproject
if not fastrtps_dep.found() or not fastcdr_dep.found()
  cmake = import('cmake')
  fastdds_cmake_opts = cmake.subproject_options()
  fastdds_cmake_opts.add_cmake_defines({'THIRDPARTY_fastcdr': 'ON'})

  fastdds_cmake_subproj = cmake.subproject('fast-dds', options: fastdds_cmake_opts)
  if fastdds_cmake_subproj.found()
    fastrtps_dep = fastdds_cmake_subproj.dependency('fastrtps')
    fastcdr_dep = fastdds_cmake_subproj.dependency('fastcdr')
    meson.override_dependency('fastrtps', fastrtps_dep)
    meson.override_dependency('fastcdr', fastcdr_dep)
  else
    fastrtps_dep = disabler()
    fastcdr_dep = disabler()
  endif
endif

subdir('cpp')
`)

var ddsCppMeson = parse("dds cpp meson", `lib_files = [
{{- range $i, $f := .Sources}}{{if $i}},{{end}}
    '{{$f}}'
{{- end}}
]

hxx_files = [
{{- range $i, $f := .Headers}}{{if $i}},{{end}}
    '{{$f}}'
{{- end}}
]

{{.Project}} = library(
    '{{.Project}}',
    lib_files,
    soversion: meson.project_version(),
    include_directories: ['.'],
    cpp_args : '-Wno-non-virtual-dtor',
    dependencies: [fastrtps_dep, fastcdr_dep],
    install: true
)

{{.Project}}_dep  = declare_dependency(
    link_with: {{.Project}},
    include_directories: ['.'],
    dependencies: [fastrtps_dep, fastcdr_dep],
)

meson.override_dependency('{{.Project}}', {{.Project}}_dep)

# Install library headers
{{.Project}}_install_dir = get_option('includedir') / '{{.Project}}'
foreach hxx_file : hxx_files
    install_headers(hxx_file, install_dir: {{.Project}}_install_dir)
endforeach

pkg = import('pkgconfig')
pkg.generate({{.Project}},
  name: '{{.Project}}',
  description: 'Generated eprosima {{.Project}} code',
  version: meson.project_version()
)
`)

var ddsCMakeLists = parse("dds cmakelists", `cmake_minimum_required(VERSION {{cmakeMin}})

project({{.Project}} VERSION 23)
message(STATUS "${PROJECT_NAME} version ${PROJECT_VERSION}")

find_package(fastcdr {{fastcdrMin}} REQUIRED)
find_package(fastrtps {{fastrtpsMin}} REQUIRED)

set({{.Project}}_SOURCES
{{- range .Sources}}
    {{.}}
{{- end}}
)

add_library(${PROJECT_NAME}
  ${ {{- .Project}}_SOURCES}
)

target_link_libraries(${PROJECT_NAME}
  PUBLIC
  fastrtps fastcdr
)

# NOMINMAX keeps windows.h from defining min and max macros.
IF(MSVC)
  add_definitions(-DNOMINMAX -DNOGDI)
ENDIF()

target_compile_features(${PROJECT_NAME} PRIVATE cxx_std_14)

set_property(TARGET ${PROJECT_NAME} PROPERTY POSITION_INDEPENDENT_CODE ON)

if(NOT MSVC)
  target_compile_options(${PROJECT_NAME} PRIVATE -Wall -Wextra -Wpedantic)
endif()

target_include_directories(${PROJECT_NAME}
  PUBLIC
  $<INSTALL_INTERFACE:include/>
  $<BUILD_INTERFACE:${CMAKE_CURRENT_SOURCE_DIR}/>
  PRIVATE
  ${CMAKE_CURRENT_SOURCE_DIR}/
)

install(
  DIRECTORY {{.Project}}/
  INCLUDES DESTINATION include/{{.Project}}
  FILES_MATCHING PATTERN "*.h"
)

install(
  TARGETS ${PROJECT_NAME}
  EXPORT ${PROJECT_NAME}Targets
  ARCHIVE DESTINATION lib
  LIBRARY DESTINATION lib
  RUNTIME DESTINATION bin
)

include(CMakePackageConfigHelpers)
write_basic_package_version_file(
  ${PROJECT_NAME}ConfigVersion.cmake
  COMPATIBILITY AnyNewerVersion
)

export(TARGETS ${PROJECT_NAME} FILE ${PROJECT_NAME}Targets.cmake)

install(EXPORT ${PROJECT_NAME}Targets
  FILE ${PROJECT_NAME}Targets.cmake
  DESTINATION lib/cmake/${PROJECT_NAME}
)

set(PKG_NAME ${PROJECT_NAME})
configure_package_config_file("cmake/${PROJECT_NAME}Config.cmake.in" "${CMAKE_CURRENT_BINARY_DIR}/${PROJECT_NAME}Config.cmake"
  INSTALL_DESTINATION lib/cmake/${PROJECT_NAME}
  PATH_VARS PKG_NAME
  NO_SET_AND_CHECK_MACRO
  NO_CHECK_REQUIRED_COMPONENTS_MACRO)

install(FILES "${CMAKE_CURRENT_BINARY_DIR}/${PROJECT_NAME}Config.cmake"
  "${CMAKE_CURRENT_BINARY_DIR}/${PROJECT_NAME}ConfigVersion.cmake"
  DESTINATION lib/cmake/${PROJECT_NAME}
)
`)

var ddsCMakeConfig = parse("dds cmake config", `@PACKAGE_INIT@

include(CMakeFindDependencyMacro)
find_dependency(fastcdr)
find_dependency(fastrtps)

if(NOT TARGET {{.Project}})
    include("${CMAKE_CURRENT_LIST_DIR}/@PROJECT_NAME@Targets.cmake")
endif(NOT TARGET {{.Project}})
`)
