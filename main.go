package main

import (
	"math/rand"
	"time"
)

func main() {
	// 初始化控制台
	InitFlag()
	// 开始安全退出任务
	InitSafeExit()
	// 初始化配置
	InitConf(configPath)
	// 初始化日志
	InitLog()
	// 限速抖动随机源
	rand.Seed(time.Now().UnixNano())

	if runBounds != "" || runZooms != "" {
		// 一次性下载模式
		InitRun()
		return
	}
	// 启动 HTTP 服务
	InitServer()
}
