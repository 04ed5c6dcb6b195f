//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "minestats"
	mainPath   = "./cmd/minestats"
	reportsDir = "./reports"
)

// Default 默认任务：显示帮助信息
func Default() {
	fmt.Println("minestats 构建系统")
	fmt.Println("==================")
	fmt.Println("可用任务:")
	fmt.Println("  mage build         - 构建二进制文件")
	fmt.Println("  mage run           - 使用 ./config/minestats.yaml 运行服务")
	fmt.Println("  mage test          - 运行所有测试")
	fmt.Println("  mage testRace      - 使用 -race 运行测试")
	fmt.Println("  mage coverage      - 生成测试覆盖率报告")
	fmt.Println("  mage lint          - 运行代码检查")
	fmt.Println("  mage clean         - 清理构建产物")
	fmt.Println("  mage docker:influx - 启动本地 InfluxDB (历史记录)")
	fmt.Println("  mage docker:down   - 停止本地 InfluxDB")
}

// Build 构建二进制文件，版本号来自 git describe
func Build() error {
	mg.Deps(Clean)

	output := filepath.Join("./dist", binaryName)
	if runtime.GOOS == "windows" {
		output += ".exe"
	}

	ldflags := "-s -w"
	if v := gitVersion(); v != "" {
		ldflags += " -X minestats/pkg/version.Version=" + v
	}

	fmt.Printf("📦 构建 %s...\n", binaryName)
	env := map[string]string{"CGO_ENABLED": "0"}
	if err := sh.RunWithV(env, "go", "build", "-ldflags", ldflags, "-o", output, mainPath); err != nil {
		return fmt.Errorf("构建 %s 失败: %v", binaryName, err)
	}

	if info, err := os.Stat(output); err == nil {
		fmt.Printf("   ✅ %s: %d MB\n", binaryName, info.Size()/1024/1024)
	}
	return nil
}

// Run 运行服务
func Run() error {
	return sh.RunV("go", "run", mainPath, "-config", "./config/minestats.yaml", "-log-format", "text")
}

// Test 运行所有测试
func Test() error {
	fmt.Println("🧪 运行测试...")
	cmd := exec.Command("go", "test", "./...", "-timeout=5m")
	cmd.Env = os.Environ()

	output, err := cmd.CombinedOutput()
	if err != nil {
		fmt.Printf("测试失败输出:\n%s\n", string(output))
		return fmt.Errorf("测试失败: %v", err)
	}

	fmt.Println("✅ 测试通过!")
	return nil
}

// TestRace 使用竞态检测运行测试
func TestRace() error {
	return sh.RunV("go", "test", "-race", "./pkg/...", "-timeout=10m")
}

// Docker 本地依赖
type Docker mg.Namespace

// Influx 启动 InfluxDB 2.x，用于 history.enabled=true 的本地调试
func (Docker) Influx() error {
	fmt.Println("🐳 启动 InfluxDB...")
	return sh.RunV("docker", "run", "-d", "--rm", "--name", "minestats-influxdb",
		"-p", "8086:8086",
		"-e", "DOCKER_INFLUXDB_INIT_MODE=setup",
		"-e", "DOCKER_INFLUXDB_INIT_USERNAME=minestats",
		"-e", "DOCKER_INFLUXDB_INIT_PASSWORD=minestats_dev",
		"-e", "DOCKER_INFLUXDB_INIT_ORG=minestats",
		"-e", "DOCKER_INFLUXDB_INIT_BUCKET=github_stats",
		"-e", "DOCKER_INFLUXDB_INIT_ADMIN_TOKEN=minestats_dev_token",
		"influxdb:2.7")
}

// Down 停止 InfluxDB
func (Docker) Down() error {
	return sh.RunV("docker", "stop", "minestats-influxdb")
}

// Clean 清理构建产物
func Clean() error {
	fmt.Println("🧹 清理构建产物...")

	if err := os.MkdirAll("./dist", 0755); err != nil {
		return fmt.Errorf("创建 dist 目录失败: %v", err)
	}

	files, err := filepath.Glob("./dist/*")
	if err != nil {
		return fmt.Errorf("查找文件失败: %v", err)
	}
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			fmt.Printf("警告: 无法删除文件 %s: %v\n", file, err)
		}
	}

	if err := os.RemoveAll(reportsDir); err != nil && !os.IsNotExist(err) {
		fmt.Printf("警告: 清理覆盖率报告失败: %v\n", err)
	}

	fmt.Println("✅ 清理完成!")
	return nil
}

// Lint 检查格式并运行 go vet
func Lint() error {
	fmt.Println("🔍 运行代码检查...")

	output, err := sh.Output("gofmt", "-l", ".")
	if err != nil {
		return fmt.Errorf("gofmt 检查失败: %v", err)
	}
	if strings.TrimSpace(output) != "" {
		return fmt.Errorf("以下文件需要 gofmt:\n%s", output)
	}

	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return fmt.Errorf("go vet 失败: %v", err)
	}

	fmt.Println("✅ 代码检查通过!")
	return nil
}

// Coverage 生成测试覆盖率报告
func Coverage() error {
	fmt.Println("📈 生成测试覆盖率报告...")

	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %v", err)
	}

	profile := filepath.Join(reportsDir, "coverage.out")
	if err := sh.Run("go", "test", "./pkg/...", "-coverprofile="+profile, "-covermode=atomic"); err != nil {
		return fmt.Errorf("生成覆盖率失败: %v", err)
	}

	html := filepath.Join(reportsDir, "coverage.html")
	if err := sh.Run("go", "tool", "cover", "-html="+profile, "-o", html); err != nil {
		return fmt.Errorf("生成HTML报告失败: %v", err)
	}
	if err := sh.RunV("go", "tool", "cover", "-func="+profile); err != nil {
		return fmt.Errorf("显示覆盖率失败: %v", err)
	}

	fmt.Println("   详细报告: file://" + getAbsolutePath(html))
	return nil
}

func gitVersion() string {
	out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func getAbsolutePath(relativePath string) string {
	absPath, err := filepath.Abs(relativePath)
	if err != nil {
		return relativePath
	}
	return absPath
}
