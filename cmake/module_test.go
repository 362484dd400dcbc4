package cmake

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/willibrandon/gomigrator/model"
)

func TestRenderModule_QtPartition(t *testing.T) {
	f := newFixture(t)
	got := body(t, f.generate(t, &model.Module{
		Name:       "test_app",
		ModuleType: model.Executable,
		Output:     "@build_dir@/_build/test_app",
		Sources: []model.Source{
			{
				Path:         "@build_dir@/moc/moc_main.cpp",
				CompileFlags: []string{"-DQT_CORE_LIB", "-fPIC"},
				Language:     "c++",
			},
			{
				Path:         "@source_dir@/main.cpp",
				CompileFlags: []string{"-DQT_CORE_LIB", "-DAPP", "-fPIC", "-O2", "-std=gnu++11"},
				IncludeDirs:  []string{"@source_dir@", "/usr/include/x86_64-linux-gnu/qt5/QtCore"},
				Language:     "c++",
			},
			{
				Path:         "@source_dir@/util.cpp",
				CompileFlags: []string{"-DAPP", "-fPIC", "-O2", "-Wall"},
				IncludeDirs:  []string{"@source_dir@/include", "/usr/include"},
				Language:     "c++",
			},
		},
		Dependencies: []string{
			"@build_dir@/moc/moc_main.cpp",
			"@source_dir@/form.ui",
			"@source_dir@/main.cpp",
			"@source_dir@/main.h",
		},
		Libs:      []string{"/usr/lib/libQt5Core.so", "/usr/lib/libQt5Core.so", "pthread"},
		LinkFlags: []string{"-L/opt/lib", "-Wl,-O1"},
	}))

	want := "add_executable(test_app\n" +
		"    " + f.src + "/main.h\n" +
		"    " + f.src + "/main.cpp\n" +
		"    " + f.src + "/util.cpp\n" +
		"    " + f.src + "/form.ui\n" +
		")\n" +
		"target_include_directories(test_app PRIVATE\n" +
		"    " + f.src + "\n" +
		"    " + f.src + "/include\n" +
		")\n" +
		"target_compile_definitions(test_app PRIVATE\n" +
		"    APP\n" +
		")\n" +
		"target_compile_options(test_app PRIVATE\n" +
		"    -fPIC\n" +
		"    -O2\n" +
		")\n" +
		"set_source_files_properties(" + f.src + "/util.cpp PROPERTIES COMPILE_OPTIONS -Wall)\n" +
		"target_link_libraries(test_app PRIVATE\n" +
		"    Qt5::Core\n" +
		"    Threads::Threads\n" +
		")\n" +
		"target_link_directories(test_app PRIVATE\n" +
		"    /opt/lib\n" +
		")\n" +
		"target_link_options(test_app PRIVATE\n" +
		"    -Wl,-O1\n" +
		")\n" +
		"\n"
	assert.Equal(t, want, got)
}

func TestRenderModule_MocSourceEnablesQtAutomation(t *testing.T) {
	f := newFixture(t)
	got := f.generate(t, &model.Module{
		Name:       "app",
		ModuleType: model.Executable,
		Output:     "@build_dir@/app",
		Sources: []model.Source{
			{Path: "@build_dir@/moc/moc_main.cpp", Language: "c++"},
			{
				Path:        "@source_dir@/main.cpp",
				IncludeDirs: []string{"/usr/include/x86_64-linux-gnu/qt5"},
				Language:    "c++",
			},
		},
		Dependencies: []string{"@source_dir@/main.cpp", "@source_dir@/main.h", "@build_dir@/moc/moc_main.cpp"},
	})

	assert.Contains(t, got, "set(CMAKE_AUTOMOC ON)\n")
	assert.Contains(t, got, "find_package(Qt5 COMPONENTS Core REQUIRED)\n")
	assert.Contains(t, body(t, got), "add_executable(app\n"+
		"    "+f.src+"/main.h\n"+
		"    "+f.src+"/main.cpp\n"+
		")\n")
	assert.Contains(t, got, "target_link_libraries(app PRIVATE\n    Qt5::Core\n)\n")
	assert.NotContains(t, got, "moc_main.cpp")
	assert.NotContains(t, got, "/usr/include/x86_64-linux-gnu/qt5")
}

func TestRenderModule_WithoutQtKeepsSourcesVerbatim(t *testing.T) {
	f := newFixture(t)
	got := body(t, f.generate(t, &model.Module{
		Name:       "tool",
		ModuleType: model.Executable,
		Output:     "@build_dir@/_build/tool",
		Sources: []model.Source{
			{Path: "@source_dir@/tool.c", CompileFlags: []string{"-DQT_CORE_LIB"}, Language: "c"},
		},
	}))

	want := "add_executable(tool\n" +
		"    " + f.src + "/tool.c\n" +
		")\n" +
		"target_compile_definitions(tool PRIVATE\n" +
		"    QT_CORE_LIB\n" +
		")\n" +
		"\n"
	assert.Equal(t, want, got)
}

func TestRenderModule_OutputDirectories(t *testing.T) {
	f := newFixture(t)
	got := f.generate(t,
		module("test_app", func(m *model.Module) { m.Output = "@build_dir@/bin/test_app" }),
		module("foo", func(m *model.Module) {
			m.ModuleType = model.SharedLibrary
			m.Output = "@build_dir@/lib/libfoo.so.1.2.3"
			m.Version = "1.2.3"
			m.CompatibilityVersion = "1"
		}),
		module("bar", func(m *model.Module) {
			m.ModuleType = model.StaticLibrary
			m.Output = "@build_dir@/lib/libbar.a"
		}),
		module("plain", nil),
	)

	assert.Contains(t, got, "set_target_output_subdir(test_app RUNTIME_OUTPUT_DIRECTORY "+f.build+"/bin)\n")
	assert.Contains(t, got, "add_library(foo SHARED\n    "+f.src+"/foo.cpp\n)\n")
	assert.Contains(t, got, "set_target_properties(foo PROPERTIES VERSION 1.2.3 SOVERSION 1)\n")
	assert.Contains(t, got, "set_target_output_subdir(foo LIBRARY_OUTPUT_DIRECTORY "+f.build+"/lib)\n")
	assert.Contains(t, got, "add_library(bar STATIC\n    "+f.src+"/bar.cpp\n)\n")
	assert.Contains(t, got, "set_target_output_subdir(bar ARCHIVE_OUTPUT_DIRECTORY "+f.build+"/lib)\n")
	assert.NotContains(t, got, "set_target_output_subdir(plain")
}

func TestRenderModule_TestExecutable(t *testing.T) {
	f := newFixture(t)
	got := f.generate(t, module("unit", func(m *model.Module) { m.ModuleType = model.TestExecutable }))

	assert.Contains(t, got, "add_executable(unit\n")
	assert.Contains(t, got, "add_test(NAME unit COMMAND unit)\n")
}

func TestRenderModule_ResolvesEarlierEntries(t *testing.T) {
	f := newFixture(t)
	got := f.generate(t,
		&model.CustomCommand{ID: "c1", Output: "@build_dir@/gen.cpp", Command: "gen"},
		&model.CustomTarget{ID: "t1", Name: "docs", Commands: []string{"doxygen"}},
		module("core", func(m *model.Module) {
			m.ModuleType = model.StaticLibrary
			m.Output = "@build_dir@/_build/libcore.a"
		}),
		module("app", func(m *model.Module) {
			m.Dependencies = []string{
				"@build_dir@/_build/libcore.a",
				"@build_dir@/gen.cpp",
				"@source_dir@/app.cpp",
				"docs",
				"later",
			}
		}),
		&model.CustomTarget{ID: "t2", Name: "later", Commands: []string{"true"}},
	)

	assert.Contains(t, got, "add_executable(app\n    "+f.src+"/app.cpp\n    "+f.build+"/gen.cpp\n)\n")
	assert.Contains(t, got, "add_dependencies(app core docs)\n")
}

func TestRenderModule_EmptySources(t *testing.T) {
	f := newFixture(t)
	f.gen.RenderModule(&model.Module{Name: "iface", ModuleType: model.StaticLibrary})
	assert.Equal(t, "add_library(iface STATIC)\n\n", f.gen.Listfile())
}

func TestGeneratedInput(t *testing.T) {
	deps := []string{"@source_dir@/window.hpp", "@source_dir@/dialog.ui", "@source_dir@/res.qrc", "@source_dir@/window.cpp"}

	assert.Equal(t, "@source_dir@/window.hpp", generatedInput("@build_dir@/moc_window.cpp", deps))
	assert.Equal(t, "@source_dir@/dialog.ui", generatedInput("@build_dir@/ui_dialog.h", deps))
	assert.Equal(t, "@source_dir@/res.qrc", generatedInput("@build_dir@/qrc_res.cpp", deps))
	assert.Empty(t, generatedInput("@build_dir@/moc_missing.cpp", deps))
}
