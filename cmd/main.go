package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fyerfyer/tender-parser/config"
	"github.com/fyerfyer/tender-parser/internal/cache"
	"github.com/fyerfyer/tender-parser/internal/llm"
	"github.com/fyerfyer/tender-parser/internal/models"
	"github.com/fyerfyer/tender-parser/internal/ocr"
	"github.com/fyerfyer/tender-parser/internal/parser"
	"github.com/fyerfyer/tender-parser/internal/pdfconv"
)

// 命令行选项
type options struct {
	ConfigFile string // 配置文件路径
	Mode       string // 运行模式 smart/quick/enrich/export
	File       string // 待解析的.docx或.pdf文件
	QuickFile  string // enrich模式的快速解析结果JSON
	ChapterIDs string // export模式的章节ID，逗号分隔
	OutDir     string // export模式的输出目录
	Timeout    time.Duration
}

func main() {
	opts := parseFlags()

	// .env文件不存在不算错误
	_ = godotenv.Load()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)
	svc := buildService(cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	// PDF输入先做文本化预处理，结构解析仅接受.docx
	if strings.EqualFold(filepath.Ext(opts.File), ".pdf") {
		err = runPDFText(ctx, cfg, logger, opts)
	} else {
		err = run(ctx, svc, opts)
	}
	if err != nil {
		logger.WithError(err).Error("解析失败")
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// runPDFText PDF文本化：原生文本直接抽取，扫描版按配置送OCR
func runPDFText(ctx context.Context, cfg *config.Config, logger *logrus.Logger, opts options) error {
	var ocrClient ocr.Client
	if cfg.OCR.BaseURL != "" {
		ocrClient = ocr.NewClient(cfg.OCR, logger)
	}
	text, err := pdfconv.ExtractText(ctx, opts.File, ocrClient, logger)
	if err != nil {
		return err
	}
	return printJSON(text)
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.ConfigFile, "config", "", "配置文件路径")
	flag.StringVar(&opts.Mode, "mode", "smart", "运行模式: smart/quick/enrich/export")
	flag.StringVar(&opts.File, "file", "", "待解析的.docx或.pdf文件路径")
	flag.StringVar(&opts.QuickFile, "quick", "", "快速解析结果JSON路径 (enrich模式)")
	flag.StringVar(&opts.ChapterIDs, "chapters", "", "导出章节ID，逗号分隔 (export模式)")
	flag.StringVar(&opts.OutDir, "out", ".", "导出文件目录 (export模式)")
	flag.DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "整体超时时间")
	flag.Parse()

	if opts.File == "" {
		fmt.Fprintln(os.Stderr, "用法: tender-parser -file 招标文件.docx [-mode smart|quick|enrich|export]")
		os.Exit(2)
	}
	return opts
}

// setupLogger 按配置初始化日志器，配置了文件时带轮转
func setupLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}

	if cfg.File != "" {
		logger.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}))
	}
	return logger
}

// buildService 组装解析服务，LLM和缓存按配置可选
func buildService(cfg *config.Config, logger *logrus.Logger) *parser.Service {
	opts := []parser.Option{parser.WithLogger(logger)}

	if cfg.LLM.APIKey != "" {
		client, err := llm.NewClient(cfg.LLM.Provider,
			llm.WithAPIKey(cfg.LLM.APIKey),
			llm.WithBaseURL(cfg.LLM.Endpoint),
			llm.WithModel(cfg.LLM.Model),
			llm.WithTimeout(cfg.LLM.Timeout),
			llm.WithMaxRetries(cfg.LLM.MaxRetries),
			llm.WithMaxTokens(cfg.LLM.MaxTokens),
			llm.WithTemperature(cfg.LLM.Temperature),
		)
		if err != nil {
			logger.WithError(err).Warn("大模型客户端初始化失败，层级分析仅用统计规则")
		} else {
			opts = append(opts, parser.WithLLMClient(client))
		}
	}

	if cfg.Cache.Enable {
		store, err := cache.NewCache(cfg.Cache)
		if err != nil {
			logger.WithError(err).Warn("缓存初始化失败，本次解析不使用缓存")
		} else {
			opts = append(opts, parser.WithCache(store))
		}
	}

	return parser.NewService(cfg, opts...)
}

func run(ctx context.Context, svc *parser.Service, opts options) error {
	switch opts.Mode {
	case "smart":
		result, err := svc.ParseSmart(ctx, opts.File)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "quick":
		result, err := svc.ParseQuick(ctx, opts.File)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "enrich":
		if opts.QuickFile == "" {
			return fmt.Errorf("enrich模式需要 -quick 指定快速解析结果")
		}
		data, err := os.ReadFile(opts.QuickFile)
		if err != nil {
			return err
		}
		var quick models.QuickResult
		if err := json.Unmarshal(data, &quick); err != nil {
			return fmt.Errorf("解析快速结果JSON失败: %w", err)
		}
		result, err := svc.Enrich(ctx, opts.File, &quick)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "export":
		if opts.ChapterIDs == "" {
			return fmt.Errorf("export模式需要 -chapters 指定章节ID")
		}
		parsed, err := svc.ParseSmart(ctx, opts.File)
		if err != nil {
			return err
		}
		if !parsed.Success {
			return fmt.Errorf("解析失败: %s", parsed.Error)
		}
		ids := strings.Split(opts.ChapterIDs, ",")
		for i := range ids {
			ids[i] = strings.TrimSpace(ids[i])
		}
		result, err := svc.ExportChapters(ctx, opts.File, parsed.Chapters, ids, opts.OutDir)
		if err != nil {
			return err
		}
		return printJSON(result)

	default:
		return fmt.Errorf("未知模式: %s", opts.Mode)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
