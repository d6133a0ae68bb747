package transport

import (
	"io"
	"sync"
)

// Chunk 一次 Read 的结果
type Chunk struct {
	Data []byte
	Err  error
}

// Reader 串口读事件源：每个请求执行恰好一次 Read（最多 n 字节），结果投递到 Chunks。
// 同一时刻最多只有一个未完成的请求。
type Reader struct {
	r    io.Reader
	req  chan int
	out  chan Chunk
	once sync.Once
}

// NewReader 创建并启动读协程
func NewReader(r io.Reader) *Reader {
	rd := &Reader{
		r:   r,
		req: make(chan int, 1),
		out: make(chan Chunk, 1),
	}
	go rd.run()
	return rd
}

func (rd *Reader) run() {
	defer close(rd.out)
	for n := range rd.req {
		if n <= 0 {
			n = 1
		}
		buf := make([]byte, n)
		k, err := rd.r.Read(buf)
		rd.out <- Chunk{Data: buf[:k], Err: err}
		if err != nil {
			return
		}
	}
}

// Request 请求下一次读取 n 字节
func (rd *Reader) Request(n int) { rd.req <- n }

// Chunks 读取结果通道，读协程退出时关闭
func (rd *Reader) Chunks() <-chan Chunk { return rd.out }

// Stop 不再接受请求；阻塞中的 Read 需关闭底层端口才能返回
func (rd *Reader) Stop() {
	rd.once.Do(func() { close(rd.req) })
}
