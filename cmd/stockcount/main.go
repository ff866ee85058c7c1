package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Youssefghazawy13/Stock/internal/config"
	"github.com/Youssefghazawy13/Stock/internal/server"
)

var (
	port     = flag.Int("port", 0, "服务端口 (覆盖配置文件)")
	devMode  = flag.Bool("dev", false, "开发模式")
	dataDir  = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	timezone = flag.String("timezone", "", "报表参考时区 (覆盖配置文件)")
)

func main() {
	flag.Parse()

	// .env 可缺省，存在时先于配置加载
	_ = godotenv.Load()

	fmt.Println("==========================================")
	fmt.Println("  Stock - 门店盘点报表生成工具")
	fmt.Println("==========================================")

	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
	}

	// 命令行参数覆盖配置
	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if *timezone != "" {
		cfg.Business.Timezone = *timezone
	}

	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Fatalf("创建数据目录失败: %v", err)
	}
	fmt.Printf("数据目录: %s\n", dir)
	fmt.Printf("报表时区: %s\n", cfg.Business.Timezone)

	// 创建服务器
	srv := server.NewServer(cfg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	// 启动服务器
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := srv.Run(addr); err != nil {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n服务已停止")
}
